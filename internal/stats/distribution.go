package stats

import (
	"strings"

	"github.com/huangang/evalstats/internal/models"
	"gorm.io/datatypes"
)

type histogram = datatypes.JSONType[models.Distribution]

func emptyDistribution() histogram {
	return datatypes.NewJSONType(models.Distribution{})
}

func cloneDistribution(h histogram) histogram {
	return datatypes.NewJSONType(h.Data().Clone())
}

// bump returns h with bucket key incremented. Blank keys are ignored.
func bump(h histogram, key string) histogram {
	key = strings.TrimSpace(key)
	m := h.Data().Clone()
	if key == "" {
		return datatypes.NewJSONType(m)
	}
	m[key] = increment(m[key])
	return datatypes.NewJSONType(m)
}
