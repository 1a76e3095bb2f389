package predictor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/nutrilabel/internal/config"
)

// Registry holds the predictors built at startup. It is read-only after
// construction.
type Registry struct {
	byName map[string]*Predictor
	order  []string
}

// NewRegistry returns a registry of preds in the given order.
func NewRegistry(preds ...*Predictor) *Registry {
	r := &Registry{byName: make(map[string]*Predictor, len(preds))}
	for _, p := range preds {
		if _, dup := r.byName[p.Name()]; !dup {
			r.order = append(r.order, p.Name())
		}
		r.byName[p.Name()] = p
	}
	return r
}

// Load builds a predictor for every built-in definition. Predictors whose
// model is not configured or fails to load are registered as unavailable and
// logged; Load itself never fails.
func Load(cfgs map[string]config.PredictorConfig, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	defs := Definitions()
	preds := make([]*Predictor, 0, len(defs))
	for _, def := range defs {
		clf, err := buildClassifier(def, cfgs[def.Name])
		if err != nil {
			log.Warn("predictor unavailable",
				zap.String("predictor", def.Name),
				zap.Error(err))
		} else {
			log.Info("predictor loaded",
				zap.String("predictor", def.Name),
				zap.String("source", cfgs[def.Name].Source))
		}
		preds = append(preds, New(def, clf))
	}

	for name := range cfgs {
		if _, ok := Lookup(name); !ok {
			log.Warn("ignoring unknown predictor in config", zap.String("predictor", name))
		}
	}

	return NewRegistry(preds...)
}

// buildClassifier returns a nil Classifier on error.
func buildClassifier(def Definition, cfg config.PredictorConfig) (Classifier, error) {
	switch cfg.Source {
	case "":
		return nil, fmt.Errorf("no model configured")
	case config.SourceFile:
		m, err := LoadModel(cfg.Path, def.Fields)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.SourceRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote model has no url")
		}
		return NewRemoteModel(cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown model source %q", cfg.Source)
	}
}

// Get returns the predictor named name.
func (r *Registry) Get(name string) (*Predictor, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns predictors in registration order.
func (r *Registry) All() []*Predictor {
	out := make([]*Predictor, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

// Status maps each predictor name to its availability.
func (r *Registry) Status() map[string]bool {
	out := make(map[string]bool, len(r.order))
	for _, name := range r.order {
		out[name] = r.byName[name].Available()
	}
	return out
}
