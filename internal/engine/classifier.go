// FILENAME: internal/engine/classifier.go
package engine

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xkilldash9x/owasp-driver/internal/models"
)

// Meta keys written by the classifier.
const (
	MetaNovel   = models.MetaNovel
	MetaAnomaly = models.MetaAnomaly
	MetaStage   = models.MetaStage
)

// StageGenerate marks a result that failed before submission.
const StageGenerate = "generate"

// Anomaly kinds.
const (
	AnomalyTransport   = "transport_error"
	AnomalyServerError = "server_error"
)

// Classifier flags results whose response body has not been seen recently
// and results that look like a target failure. Safe for concurrent use.
type Classifier struct {
	seen *lru.Cache[string, struct{}]
}

// NewClassifier remembers up to size distinct body hashes.
func NewClassifier(size int) (*Classifier, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &Classifier{seen: cache}, nil
}

// Classify annotates r.Meta in place.
func (c *Classifier) Classify(r *models.ScanResult) {
	if r.Meta == nil {
		r.Meta = make(map[string]string)
	}

	if r.Error != nil {
		r.Meta[MetaAnomaly] = AnomalyTransport
		return
	}
	if r.StatusCode >= 500 {
		r.Meta[MetaAnomaly] = AnomalyServerError
	}

	key := strconv.Itoa(r.StatusCode) + "|" + r.BodyHash
	if found, _ := c.seen.ContainsOrAdd(key, struct{}{}); !found {
		r.Meta[MetaNovel] = "true"
	}
}

// Len is the number of distinct responses currently remembered.
func (c *Classifier) Len() int { return c.seen.Len() }
