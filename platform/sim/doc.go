// Package sim implements the muen platform HAL entirely in-process, backing
// [platform.Region] with a plain []byte and [platform.EventTrigger] with a
// channel of triggered event numbers.
//
// It exists to exercise the rest of the stack (sinfo, affinity, channel,
// muennet) end to end without real hardware underneath — no hypervisor,
// no /dev/mem. There is no notion of "physical address" in sim; a [Bus]
// hands out regions backed by independent byte slices addressed by name,
// and tests wire a writer's output region to a reader's input region
// directly.
package sim
