package features

// Listener receives load outcomes. Calls are serialized and happen after the
// client state for that outcome is visible to queries. Implementations may
// call Reload but must not call Load or Close on the client they listen to.
type Listener interface {
	FeaturesLoaded(set FeatureSet)
	FeaturesLoadFailed(err error)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnLoaded func(set FeatureSet)
	OnFailed func(err error)
}

func (f ListenerFuncs) FeaturesLoaded(set FeatureSet) {
	if f.OnLoaded != nil {
		f.OnLoaded(set)
	}
}

func (f ListenerFuncs) FeaturesLoadFailed(err error) {
	if f.OnFailed != nil {
		f.OnFailed(err)
	}
}

// Listeners fans each outcome out to every non-nil listener in order.
type Listeners []Listener

func (ls Listeners) FeaturesLoaded(set FeatureSet) {
	for _, l := range ls {
		if l != nil {
			l.FeaturesLoaded(set)
		}
	}
}

func (ls Listeners) FeaturesLoadFailed(err error) {
	for _, l := range ls {
		if l != nil {
			l.FeaturesLoadFailed(err)
		}
	}
}

type noopListener struct{}

func (noopListener) FeaturesLoaded(FeatureSet) {}
func (noopListener) FeaturesLoadFailed(error)  {}
