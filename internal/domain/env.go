package domain

// Env is the variable context rules are evaluated against and job
// scripts run with.
type Env map[string]string

func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Merge returns a copy of e with every map in overlays applied on top,
// later overlays winning.
func (e Env) Merge(overlays ...map[string]string) Env {
	out := e.Clone()
	for _, o := range overlays {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}
