package actor

// State captures the lifecycle phase of a module: Starting, Running,
// Terminating or Stopped.
type State uint32

const (
	//Starting is the initial state of a module, before its run loop spins.
	Starting State = iota
	//Running means the module is processing events.
	Running
	//Terminating means the module has decided to exit; its run loop winds
	//down without processing further events.
	Terminating
	//Stopped means the module's run loop has exited.
	Stopped
)

// String ...
func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Terminating:
		return "Terminating"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
