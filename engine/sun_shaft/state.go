package sun_shaft

// State is the stage of the per-frame procedure the orchestrator is in.
type State int

const (
	StateIdle State = iota
	StateSetup
	StateExtraction
	StateBlurring
	StateCompositing
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateExtraction:
		return "extraction"
	case StateBlurring:
		return "blurring"
	case StateCompositing:
		return "compositing"
	default:
		return "idle"
	}
}
