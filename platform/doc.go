// Package platform defines the hardware abstraction the muen IPC core needs
// from its host environment: mapping a physical address range into process
// memory, and triggering the hypervisor event hypercall.
//
// Neither operation is something the core can implement portably — on Muen,
// both are properties of the separation kernel's static partition policy, not
// of the operating system. Platform vendors (or, for this module, the two
// backends under [github.com/ardnew/muenipc/platform/linux] and
// [github.com/ardnew/muenipc/platform/sim]) supply the concrete mechanism.
//
// # Implementing a backend
//
//  1. Implement [Region] over however the backend obtains addressable bytes
//     for a physical range (mmap, a test-only []byte, …).
//  2. Implement [EventTrigger] over however the backend raises the
//     hypervisor's event hypercall (an ioctl, a channel send in tests, …).
//
// The [github.com/ardnew/muenipc/platform/sim] backend is the one used by
// this module's own tests; it requires no privileges and no real hypervisor
// underneath.
package platform
