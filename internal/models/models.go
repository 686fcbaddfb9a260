// FILENAME: internal/models/models.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Probe is a single generated payload bound for the target.
type Probe struct {
	Index int
	// Seed reproduces Payload when fed back to the same source kind.
	Seed    uint64
	Payload []byte
}

// Clone creates a deep copy of the probe.
func (p *Probe) Clone() *Probe {
	if p == nil {
		return nil
	}
	c := &Probe{Index: p.Index, Seed: p.Seed}
	if p.Payload != nil {
		c.Payload = make([]byte, len(p.Payload))
		copy(c.Payload, p.Payload)
	}
	return c
}

// Meta keys set on ScanResult.
const (
	MetaNovel   = "novel"
	MetaAnomaly = "anomaly"
	MetaStage   = "stage"
)

// ScanResult represents the outcome of a single probe.
type ScanResult struct {
	Index       int
	StatusCode  int
	Duration    time.Duration
	PayloadLen  int
	PayloadHash string
	BodyHash    string
	BodySnippet string
	Body        []byte `json:"-"`
	Error       error  `json:"-"`
	ErrorText   string `json:",omitempty"`

	// Classification flags, e.g. "novel": "true", "anomaly": "server_error"
	Meta map[string]string
}

func NewScanResult(index int, statusCode int, duration time.Duration, body []byte, err error) ScanResult {
	r := ScanResult{
		Index:      index,
		StatusCode: statusCode,
		Duration:   duration,
		Error:      err,
		Body:       body,
		Meta:       make(map[string]string),
	}
	if err != nil {
		r.ErrorText = err.Error()
	}

	if err == nil && len(body) > 0 {
		hash := sha256.Sum256(body)
		r.BodyHash = hex.EncodeToString(hash[:])

		limit := 50
		if len(body) < limit {
			limit = len(body)
		}
		r.BodySnippet = string(body[:limit])
	} else {
		r.BodyHash = "empty"
	}

	return r
}

// WithPayload records the probe's size and fingerprint on the result.
func (r ScanResult) WithPayload(p *Probe) ScanResult {
	if p == nil {
		return r
	}
	r.PayloadLen = len(p.Payload)
	hash := sha256.Sum256(p.Payload)
	r.PayloadHash = hex.EncodeToString(hash[:])
	return r
}

func (r ScanResult) String() string {
	if r.Error != nil {
		return fmt.Sprintf("[%02d] ERR: %v", r.Index, r.Error)
	}
	return fmt.Sprintf("[%02d] %d | %dB | %v | %s...", r.Index, r.StatusCode, r.PayloadLen, r.Duration, r.BodySnippet)
}
