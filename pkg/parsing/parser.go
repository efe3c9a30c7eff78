package parsing

import (
	"strings"
)

// Parser converts snapshot lines into Records.
type Parser struct {
	labels      LabelTable
	joinCommand bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLabels sets the command label table.
func WithLabels(t LabelTable) ParserOption {
	return func(p *Parser) {
		p.labels = t
	}
}

// WithoutCommandJoin makes lines with more than twelve tokens fail instead of
// treating the extra tokens as part of the command.
func WithoutCommandJoin() ParserOption {
	return func(p *Parser) {
		p.joinCommand = false
	}
}

// NewParser creates a parser. By default trailing tokens continue the command and no labels apply.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{joinCommand: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseLine splits line on whitespace and parses the tokens.
func (p *Parser) ParseLine(line string) (Record, error) {
	return p.ParseFields(strings.Fields(line))
}

// ParseFields parses the tokens of one snapshot line.
func (p *Parser) ParseFields(tokens []string) (Record, error) {
	if len(tokens) < NumFields || (len(tokens) > NumFields && !p.joinCommand) {
		return Record{}, &FieldError{
			Kind:  ErrFieldCountMismatch,
			Field: "line",
			Value: strings.Join(tokens, " "),
		}
	}

	var (
		r   Record
		err error
	)
	if r.PID, err = parseInt(FieldPID, tokens[0]); err != nil {
		return Record{}, err
	}
	r.User = tokens[1]
	if r.Priority, err = parsePriority(tokens[2]); err != nil {
		return Record{}, err
	}
	if r.Nice, err = parseInt(FieldNice, tokens[3]); err != nil {
		return Record{}, err
	}
	if r.VirtualMemKiB, err = parseMemKiB(FieldVirt, tokens[4]); err != nil {
		return Record{}, err
	}
	if r.ResidentMemKiB, err = parseMemKiB(FieldRes, tokens[5]); err != nil {
		return Record{}, err
	}
	if r.SharedMemKiB, err = parseMemKiB(FieldShr, tokens[6]); err != nil {
		return Record{}, err
	}
	if r.Status, err = ParseStatus(tokens[7]); err != nil {
		return Record{}, err
	}
	if r.CPUPercent, err = ParsePercent(FieldCPU, tokens[8]); err != nil {
		return Record{}, err
	}
	if r.MemPercent, err = ParsePercent(FieldMem, tokens[9]); err != nil {
		return Record{}, err
	}
	if r.CPUTime, err = ParseCPUTime(tokens[10]); err != nil {
		return Record{}, err
	}
	r.Command = p.labels.Apply(strings.Join(tokens[NumFields-1:], " "))

	return r, nil
}
