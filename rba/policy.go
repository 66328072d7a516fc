package rba

// ECPPolicy is the Edge Creation Policy collaborator: given a freshly
// inserted keyframe whose observations have already been registered, it
// decides which kf2kf edges to create and creates them via
// State.CreateKF2KFEdge, returning a descriptor per edge. Implementations
// live in package rba/ecp; the interface is declared here (rather than
// there) so that package rba never has to import rba/ecp, avoiding an
// import cycle between the engine and its policy plugins.
type ECPPolicy interface {
	CreateEdges(state *State, kf KeyframeID) ([]NewEdgeInfo, error)
}
