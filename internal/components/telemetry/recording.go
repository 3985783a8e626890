package telemetry

import "sync"

type Report struct {
	Id     string
	Params []any
}

// RecordingAPI keeps every report in memory, it is meant for assertions in tests.
type RecordingAPI struct {
	mutex    sync.Mutex
	broken   []Report
	warnings []Report
	debug    []Report
	counts   map[string]int64
}

func NewRecordingAPI() *RecordingAPI {
	return &RecordingAPI{counts: map[string]int64{}}
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.broken = append(r.broken, Report{Id: id, Params: params})
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.warnings = append(r.warnings, Report{Id: id, Params: params})
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.debug = append(r.debug, Report{Id: msg, Params: params})
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.counts[id] = count
}

func (r *RecordingAPI) Broken() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Report(nil), r.broken...)
}

func (r *RecordingAPI) Warnings() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Report(nil), r.warnings...)
}

func (r *RecordingAPI) Debug() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Report(nil), r.debug...)
}

// Count returns the last count reported under `id`.
func (r *RecordingAPI) Count(id string) (int64, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	n, ok := r.counts[id]
	return n, ok
}
