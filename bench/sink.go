package bench

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pingcap/errors"
	"go.uber.org/multierr"
)

// SampleSink receives latency samples in issue order.
type SampleSink interface {
	Write(sample LatencySample) error
	Close() error
}

// CSVSink writes timestamp_ns,op_index,duration_ns,payload_size,op_kind
// rows without a header.
type CSVSink struct {
	path string
	f    *os.File
	w    *csv.Writer
	rows int
}

// CreateCSVSink truncates or creates path.
func CreateCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Annotatef(err, "create sample file %s", path)
	}
	return &CSVSink{path: path, f: f, w: csv.NewWriter(f)}, nil
}

func (self *CSVSink) Write(sample LatencySample) error {
	err := self.w.Write([]string{
		strconv.FormatInt(sample.Timestamp.Nanoseconds(), 10),
		strconv.Itoa(sample.Index),
		strconv.FormatInt(sample.Latency.Nanoseconds(), 10),
		strconv.Itoa(sample.Size),
		sample.Kind.String(),
	})
	if err != nil {
		return errors.Annotatef(err, "write sample to %s", self.path)
	}
	self.rows++
	return nil
}

func (self *CSVSink) Rows() int {
	return self.rows
}

// Close flushes buffered rows and closes the file. It is safe to call
// more than once.
func (self *CSVSink) Close() error {
	if self.f == nil {
		return nil
	}
	self.w.Flush()
	err := multierr.Append(self.w.Error(), self.f.Close())
	self.f = nil
	return errors.Annotatef(err, "close sample file %s", self.path)
}
