// Package classifier talks to the cattle breed classification service.
//
// A Client holds an ordered list of candidate base URLs. The first call that
// needs the service probes each candidate's /health endpoint in order and
// binds to the first one that answers with 2xx; the choice is kept for the
// life of the Client. Classify never fails outright: when the service cannot
// be reached or returns something unusable, a placeholder result is
// synthesized and tagged SourceSynthesized.
package classifier
