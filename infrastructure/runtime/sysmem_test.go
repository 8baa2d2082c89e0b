package runtime

import "testing"

func TestAutoMemBudgetBytes(t *testing.T) {
	got := AutoMemBudgetBytes()
	if got < 0 {
		t.Fatalf("AutoMemBudgetBytes() = %d, want >= 0", got)
	}
	// On any real host this should be well above zero; a zero result
	// would only happen if the host's memory stats couldn't be read.
}
