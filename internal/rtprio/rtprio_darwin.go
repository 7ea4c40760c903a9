//go:build darwin && cgo

package rtprio

/*
#include <mach/mach.h>
#include <mach/thread_policy.h>
#include <mach/thread_act.h>
#include <mach/mach_time.h>

static int set_realtime_priority(void) {
    mach_timebase_info_data_t timebase;
    mach_timebase_info(&timebase);
    const double ms = 1000000.0 * timebase.denom / timebase.numer;

    thread_time_constraint_policy_data_t policy;
    policy.period = (uint32_t)(2.9 * ms);
    policy.computation = (uint32_t)(1.5 * ms);
    policy.constraint = (uint32_t)(2.9 * ms);
    policy.preemptible = 1;

    kern_return_t result = thread_policy_set(
        mach_thread_self(),
        THREAD_TIME_CONSTRAINT_POLICY,
        (thread_policy_t)&policy,
        THREAD_TIME_CONSTRAINT_POLICY_COUNT
    );
    return result == KERN_SUCCESS ? 0 : (int)result;
}
*/
import "C"
import "fmt"

// setRealtimePriority applies a Mach time constraint policy sized for a
// 128 frame buffer at 44.1kHz.
func setRealtimePriority() error {
	if result := C.set_realtime_priority(); result != 0 {
		return fmt.Errorf("failed to set real-time priority on macOS (code: %d)", result)
	}
	return nil
}
