package ingesting

import (
	"strings"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	"github.com/sirupsen/logrus"

	"TopAnalyzer/pkg/parsing"
)

// Policy decides what happens to a line that fails to parse.
type Policy int

const (
	// Lenient logs and skips the line and counts it in the summary.
	Lenient Policy = iota
	// Strict aborts the pass with the first parse error.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// ParsePolicy maps "lenient" or "strict" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, errors.Errorf("invalid policy %q (valid: lenient, strict)", s)
}

const (
	DefaultMaxLineSize = 1 * datasize.MB
	initialBufferSize  = 64 * 1024
)

// Options configures an ingestion pass.
type Options struct {
	Policy      Policy
	Parser      *parsing.Parser
	MaxLineSize datasize.ByteSize
	Logger      logrus.FieldLogger
	Source      string
}

// Option configures Options.
type Option func(*Options)

// WithPolicy sets the parse failure policy.
func WithPolicy(p Policy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithParser sets the record parser.
func WithParser(p *parsing.Parser) Option {
	return func(o *Options) {
		o.Parser = p
	}
}

// WithLabels builds the parser from a command label table.
func WithLabels(t parsing.LabelTable) Option {
	return func(o *Options) {
		o.Parser = parsing.NewParser(parsing.WithLabels(t))
	}
}

// WithMaxLineSize bounds the length of a single input line.
func WithMaxLineSize(size datasize.ByteSize) Option {
	return func(o *Options) {
		o.MaxLineSize = size
	}
}

// WithLogger sets the logger used for skipped lines and summaries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithSource names the input in logs and in the summary.
func WithSource(name string) Option {
	return func(o *Options) {
		o.Source = name
	}
}

func buildOptions(opts []Option) *Options {
	o := &Options{
		Policy:      Lenient,
		MaxLineSize: DefaultMaxLineSize,
		Source:      "-",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Parser == nil {
		o.Parser = parsing.NewParser()
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.MaxLineSize < initialBufferSize {
		o.MaxLineSize = initialBufferSize
	}
	return o
}
