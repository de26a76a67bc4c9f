// Package driver loads compiled program images and run configuration.
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/fedehuguet/compiler/pkg/memory"
	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

// Image is a compiled program: its constant table and quadruple sequence.
type Image struct {
	Path       string
	Name       string
	Constants  *memory.Segment
	Quadruples []quad.Quadruple
}

// Program decodes the image's quadruples.
func (img *Image) Program() (quad.Program, error) {
	if img == nil {
		return nil, fmt.Errorf("image: nil image")
	}
	return quad.Decode(img.Quadruples)
}

type imageFile struct {
	Name       string          `yaml:"name,omitempty"`
	Constants  []constantDisk  `yaml:"constants"`
	Quadruples []quadrupleDisk `yaml:"quadruples"`
}

type constantDisk struct {
	Address int       `yaml:"address"`
	Type    string    `yaml:"type"`
	Value   yaml.Node `yaml:"value"`
}

type quadrupleDisk struct {
	quad.Quadruple
}

type quadrupleMapping struct {
	Op     string    `yaml:"op"`
	Left   yaml.Node `yaml:"left"`
	Right  yaml.Node `yaml:"right"`
	Result yaml.Node `yaml:"result"`
}

// LoadImage parses a program image from disk.
func LoadImage(path string) (*Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("image: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("image: open %s: %w", abs, err)
	}
	defer file.Close()
	return ParseImage(file, abs)
}

// ParseImage decodes an image from r; path is only used in messages.
func ParseImage(r io.Reader, path string) (*Image, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw imageFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("image: %s is empty", path)
		}
		return nil, fmt.Errorf("image: parse %s: %w", path, err)
	}
	img, err := raw.toImage()
	if err != nil {
		return nil, fmt.Errorf("image: %s: %w", path, err)
	}
	img.Path = path
	return img, nil
}

func (raw imageFile) toImage() (*Image, error) {
	consts := memory.NewRegionSegment(memory.RegionConstant)
	var errs ValidationError
	for idx, c := range raw.Constants {
		if memory.RegionOf(c.Address) != memory.RegionConstant {
			errs.Issues = append(errs.Issues, fmt.Sprintf("constants[%d]: address %d is outside [%d, %d]", idx, c.Address, memory.ConstantBase, memory.TemporaryBase-1))
			continue
		}
		val, err := decodeConstant(c)
		if err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("constants[%d]: %v", idx, err))
			continue
		}
		if _, _, err := consts.Get(c.Address); err == nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("constants[%d]: address %d defined twice", idx, c.Address))
			continue
		}
		if err := consts.Set(c.Address, val); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("constants[%d]: %v", idx, err))
		}
	}
	if len(errs.Issues) > 0 {
		return nil, &errs
	}
	quads := make([]quad.Quadruple, len(raw.Quadruples))
	for idx, q := range raw.Quadruples {
		quads[idx] = q.Quadruple
	}
	return &Image{
		Name:       strings.TrimSpace(raw.Name),
		Constants:  consts,
		Quadruples: quads,
	}, nil
}

func decodeConstant(c constantDisk) (runtime.Value, error) {
	kind, err := runtime.ParseKind(c.Type)
	if err != nil {
		return nil, err
	}
	if c.Value.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("value for %s constant must be a scalar", kind)
	}
	switch kind {
	case runtime.KindInt:
		var v int64
		if err := c.Value.Decode(&v); err != nil {
			return nil, fmt.Errorf("int constant: %w", err)
		}
		return runtime.IntValue{Val: v}, nil
	case runtime.KindFloat:
		var v float64
		if err := c.Value.Decode(&v); err != nil {
			return nil, fmt.Errorf("float constant: %w", err)
		}
		return runtime.FloatValue{Val: v}, nil
	case runtime.KindBool:
		var v bool
		if err := c.Value.Decode(&v); err != nil {
			return nil, fmt.Errorf("bool constant: %w", err)
		}
		return runtime.BoolValue{Val: v}, nil
	case runtime.KindChar:
		if utf8.RuneCountInString(c.Value.Value) != 1 {
			return nil, fmt.Errorf("char constant %q must hold exactly one character", c.Value.Value)
		}
		r, _ := utf8.DecodeRuneInString(c.Value.Value)
		return runtime.CharValue{Val: r}, nil
	case runtime.KindString:
		return runtime.StringValue{Val: c.Value.Value}, nil
	}
	return nil, fmt.Errorf("unsupported constant type %s", kind)
}

// UnmarshalYAML accepts either [op, left, right, result] or a mapping with
// op/left/right/result keys. Operand fields may be "-" or omitted for unused.
func (q *quadrupleDisk) UnmarshalYAML(node *yaml.Node) error {
	var opTag string
	var fields [3]*yaml.Node
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 4 {
			return fmt.Errorf("line %d: quadruple needs 4 fields, got %d", node.Line, len(node.Content))
		}
		opTag = node.Content[0].Value
		fields = [3]*yaml.Node{node.Content[1], node.Content[2], node.Content[3]}
	case yaml.MappingNode:
		var m quadrupleMapping
		if err := node.Decode(&m); err != nil {
			return err
		}
		opTag = m.Op
		fields = [3]*yaml.Node{&m.Left, &m.Right, &m.Result}
	default:
		return fmt.Errorf("line %d: quadruple must be a sequence or mapping", node.Line)
	}
	op, err := quad.ParseOperator(opTag)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	var operands [3]int
	for idx, field := range fields {
		v, err := decodeOperand(field)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		operands[idx] = v
	}
	q.Quadruple = quad.Q(op, operands[0], operands[1], operands[2])
	return nil
}

func decodeOperand(node *yaml.Node) (int, error) {
	if node == nil || node.Kind == 0 {
		return quad.None, nil
	}
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("operand must be a scalar")
	}
	value := strings.TrimSpace(node.Value)
	if value == "" || value == "-" || value == "~" || node.Tag == "!!null" {
		return quad.None, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("operand %q is not an integer", node.Value)
	}
	return v, nil
}

// MarshalYAML writes the compact sequence form.
func (q quadrupleDisk) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: q.Op.String()})
	for _, v := range []int{q.Left, q.Right, q.Result} {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)})
	}
	return node, nil
}

func encodeConstant(address int, val runtime.Value) constantDisk {
	node := yaml.Node{Kind: yaml.ScalarNode}
	switch v := val.(type) {
	case runtime.IntValue:
		node.Tag = "!!int"
		node.Value = strconv.FormatInt(v.Val, 10)
	case runtime.FloatValue:
		node.Tag = "!!float"
		node.Value = strconv.FormatFloat(v.Val, 'g', -1, 64)
	case runtime.BoolValue:
		node.Tag = "!!bool"
		node.Value = strconv.FormatBool(v.Val)
	case runtime.CharValue:
		node.Tag = "!!str"
		node.Value = string(v.Val)
	case runtime.StringValue:
		node.Tag = "!!str"
		node.Value = v.Val
	}
	return constantDisk{Address: address, Type: runtime.KindOf(val).String(), Value: node}
}

// EncodeImage writes img in the same format LoadImage reads.
func EncodeImage(w io.Writer, img *Image) error {
	if img == nil {
		return fmt.Errorf("image: nil image")
	}
	raw := imageFile{Name: img.Name}
	if img.Constants != nil {
		for _, addr := range img.Constants.Addresses() {
			val, _, err := img.Constants.Get(addr)
			if err != nil {
				return fmt.Errorf("image: constant %d: %w", addr, err)
			}
			raw.Constants = append(raw.Constants, encodeConstant(addr, val))
		}
	}
	for _, q := range img.Quadruples {
		raw.Quadruples = append(raw.Quadruples, quadrupleDisk{Quadruple: q})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("image: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("image: encoder close: %w", err)
	}
	return nil
}

// WriteImage serialises img to path.
func WriteImage(img *Image, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("image: resolve %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := EncodeImage(&buf, img); err != nil {
		return err
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("image: write %s: %w", abs, err)
	}
	img.Path = abs
	return nil
}
