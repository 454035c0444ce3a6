package keyshare

import "fmt"

// Step names for the share and recover sequences. Every protocol failure is
// reported with the step that failed; operators need this to tell a blob
// store outage from a consent denial.
const (
	StepExportKey     = "export_key"
	StepEncodeKey     = "encode_key"
	StepStoreBlob     = "store_blob"
	StepRecordPointer = "record_pointer"

	StepReadPointer = "read_pointer"
	StepFetchBlob   = "fetch_blob"
	StepDecodeKey   = "decode_key"
	StepImportKey   = "import_key"
)

// StepError wraps a protocol failure with the name of the step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	return &StepError{Step: step, Err: err}
}
