package panos

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Envelope attributes shared by every XML API response.
type apiEnvelope struct {
	XMLName xml.Name `xml:"response"`
	Status  string   `xml:"status,attr"`
	Code    string   `xml:"code,attr"`
	Msg     struct {
		Lines []string `xml:"line"`
	} `xml:"msg"`
}

type keygenResponse struct {
	apiEnvelope
	Result struct {
		Key string `xml:"key"`
	} `xml:"result"`
}

type commitResponse struct {
	apiEnvelope
	Result struct {
		Job string `xml:"job"`
		Msg struct {
			Lines []string `xml:"line"`
		} `xml:"msg"`
	} `xml:"result"`
}

type jobResponse struct {
	apiEnvelope
	Result struct {
		Job struct {
			ID       string `xml:"id"`
			Type     string `xml:"type"`
			Status   string `xml:"status"`
			Progress string `xml:"progress"`
			Result   string `xml:"result"`
		} `xml:"job"`
	} `xml:"result"`
}

type haInfoResponse struct {
	apiEnvelope
	Result struct {
		Enabled string `xml:"enabled"`
		Group   struct {
			LocalState  string `xml:"local-info>state"`
			PeerState   string `xml:"peer-info>state"`
			RunningSync string `xml:"running-sync"`
		} `xml:"group"`
	} `xml:"result"`
}

type configGetResponse struct {
	apiEnvelope
	Result struct {
		Inner string `xml:",innerxml"`
	} `xml:"result"`
}

// Job status vocabulary of the device's asynchronous job API.
const (
	JobStatusRunning  = "ACT"
	JobStatusFinished = "FIN"
	JobResultOK       = "OK"
)

// JobStatus is one observation of a server-side commit job. Raw keeps the
// response fragment for diagnostics.
type JobStatus struct {
	ID       string
	Status   string
	Progress int
	Result   string
	Raw      string
}

// Running reports whether the job has not yet reached a terminal state.
func (j JobStatus) Running() bool { return j.Status == JobStatusRunning }

// Finished reports whether the job reached its terminal state.
func (j JobStatus) Finished() bool { return j.Status == JobStatusFinished }

// Succeeded reports a terminal state with an OK result.
func (j JobStatus) Succeeded() bool { return j.Finished() && j.Result == JobResultOK }

// SyncState is the device-reported HA running-config synchronization state.
// It is read fresh on every poll and never cached.
type SyncState int

const (
	SyncUnknown SyncState = iota
	SyncSynchronized
	SyncInProgress
	SyncNotSynchronized
)

func (s SyncState) String() string {
	switch s {
	case SyncSynchronized:
		return "synchronized"
	case SyncInProgress:
		return "synchronization in progress"
	case SyncNotSynchronized:
		return "not synchronized"
	}
	return "unknown"
}

// parseSyncState maps the vendor's vocabulary, including the synonyms seen
// in the field for the in-progress state, onto the enum.
func parseSyncState(raw string) SyncState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "synchronized":
		return SyncSynchronized
	case "synchronization in progress", "sync in progress", "syncing":
		return SyncInProgress
	case "not synchronized":
		return SyncNotSynchronized
	}
	return SyncUnknown
}

// HAInfo is one observation of a device's high-availability status.
type HAInfo struct {
	Enabled     bool
	State       string
	PeerState   string
	RunningSync SyncState
	RawSync     string
	Raw         string
}

// Active reports whether the device currently holds the active HA role.
func (h HAInfo) Active() bool { return h.State == "active" }

func decodeEnvelope(host string, body []byte, out any, env *apiEnvelope) error {
	if err := xml.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "parse XML response from %s", host)
	}
	if env.Status != "" && env.Status != "success" {
		return &APIError{Host: host, Code: env.Code, Message: strings.Join(env.Msg.Lines, "; ")}
	}
	return nil
}

func parseProgress(raw string) int {
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return val
}
