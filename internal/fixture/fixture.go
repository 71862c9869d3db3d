// Package fixture loads YAML datasets describing component trees, analyses,
// issues and quality gates into a schema.Dataset.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/huangsam/livemeasure/schema"
)

// validate is shared by every fixture; it caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// File is the root of a dataset document.
type File struct {
	Metrics  []MetricSpec  `yaml:"metrics" validate:"dive"`
	Gates    []GateSpec    `yaml:"gates" validate:"dive"`
	Projects []ProjectSpec `yaml:"projects" validate:"required,min=1,dive"`
}

// MetricSpec defines a metric beyond the core catalogue.
type MetricSpec struct {
	Key          string `yaml:"key" validate:"required"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type" validate:"required,oneof=INT FLOAT PERCENT WORK_DUR RATING LEVEL DATA STRING"`
	DecimalScale *int   `yaml:"decimal_scale" validate:"omitempty,gte=0,lte=10"`
	Direction    int    `yaml:"direction" validate:"oneof=-1 0 1"`
	LeakOnly     bool   `yaml:"leak_only"`
}

// GateSpec defines a quality gate.
type GateSpec struct {
	UUID       string          `yaml:"uuid"`
	Name       string          `yaml:"name" validate:"required"`
	Default    bool            `yaml:"default"`
	Conditions []ConditionSpec `yaml:"conditions" validate:"dive"`
}

// ConditionSpec defines one gate condition.
type ConditionSpec struct {
	Metric  string  `yaml:"metric" validate:"required"`
	Op      string  `yaml:"op" validate:"required,oneof=GT LT EQ NE"`
	Error   string  `yaml:"error" validate:"required"`
	Warning *string `yaml:"warning"`
	OnLeak  bool    `yaml:"on_leak"`
}

// AnalysisSpec is the last analysis of a project.
type AnalysisSpec struct {
	UUID       string `yaml:"uuid"`
	CreatedAt  int64  `yaml:"created_at" validate:"gt=0"`
	PeriodDate *int64 `yaml:"period_date" validate:"omitempty,gte=0"`
}

// ProjectSpec is a root of the component tree.
type ProjectSpec struct {
	ComponentSpec `yaml:",inline"`
	Branch        string        `yaml:"branch" validate:"omitempty,oneof=LONG SHORT PULL_REQUEST"`
	Gate          string        `yaml:"gate"`
	Analysis      *AnalysisSpec `yaml:"analysis"`
}

// ComponentSpec is a node of the component tree with its issues and stored measures.
type ComponentSpec struct {
	UUID      string          `yaml:"uuid"`
	Key       string          `yaml:"key" validate:"required"`
	Name      string          `yaml:"name"`
	Qualifier string          `yaml:"qualifier" validate:"omitempty,oneof=FIL UTS DIR BRC TRK APP VW"`
	Issues    []IssueSpec     `yaml:"issues" validate:"dive"`
	Measures  []MeasureSpec   `yaml:"measures" validate:"dive"`
	Children  []ComponentSpec `yaml:"children" validate:"dive"`
}

// IssueSpec is an issue raised on a component.
type IssueSpec struct {
	Key        string  `yaml:"key"`
	Type       string  `yaml:"type" validate:"required,oneof=CODE_SMELL BUG VULNERABILITY SECURITY_HOTSPOT"`
	Severity   string  `yaml:"severity" validate:"required,oneof=INFO MINOR MAJOR CRITICAL BLOCKER"`
	Status     string  `yaml:"status" validate:"omitempty,oneof=OPEN CONFIRMED REOPENED RESOLVED CLOSED TO_REVIEW REVIEWED"`
	Resolution string  `yaml:"resolution" validate:"omitempty,oneof=FIXED FALSE-POSITIVE WONTFIX REMOVED SAFE"`
	Effort     float64 `yaml:"effort" validate:"gte=0"`
	CreatedAt  int64   `yaml:"created_at" validate:"gte=0"`
}

// MeasureSpec is a stored measure, typically an input such as development_cost.
type MeasureSpec struct {
	Metric    string   `yaml:"metric" validate:"required"`
	Value     *float64 `yaml:"value"`
	Variation *float64 `yaml:"variation"`
	Text      *string  `yaml:"text"`
	UpdatedAt int64    `yaml:"updated_at" validate:"gte=0"`
}

// LoadFile reads and converts a dataset file.
func LoadFile(path string) (schema.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	ds, err := Load(bytes.NewReader(raw))
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("invalid dataset %s: %w", path, err)
	}
	return ds, nil
}

// Load decodes, validates and converts a dataset document. Unknown fields are rejected.
func Load(r io.Reader) (schema.Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return schema.Dataset{}, errors.New("dataset is empty")
		}
		return schema.Dataset{}, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return schema.Dataset{}, fmt.Errorf("failed to validate dataset: %w", err)
	}
	return f.Dataset()
}

// Dataset converts the document into store rows. Missing ids are generated,
// parent links and uuid paths are derived from nesting.
func (f *File) Dataset() (schema.Dataset, error) {
	b := builder{
		ds:   schema.Dataset{ProjectGates: map[string]string{}},
		keys: map[string]struct{}{},
	}

	gateUUIDs := map[string]string{}
	for _, g := range f.Gates {
		if _, dup := gateUUIDs[g.Name]; dup {
			return schema.Dataset{}, fmt.Errorf("duplicate gate name %q", g.Name)
		}
		id := orNewUUID(g.UUID)
		gateUUIDs[g.Name] = id
		qg := schema.QualityGate{UUID: id, Name: g.Name}
		for _, c := range g.Conditions {
			qg.Conditions = append(qg.Conditions, schema.Condition{
				MetricKey:        c.Metric,
				Operator:         schema.Operator(c.Op),
				ErrorThreshold:   c.Error,
				WarningThreshold: c.Warning,
				OnLeak:           c.OnLeak,
			})
		}
		b.ds.Gates = append(b.ds.Gates, qg)
		if g.Default {
			if b.ds.DefaultGateUUID != "" {
				return schema.Dataset{}, fmt.Errorf("more than one default gate (%q)", g.Name)
			}
			b.ds.DefaultGateUUID = id
		}
	}

	for _, m := range f.Metrics {
		name := m.Name
		if name == "" {
			name = m.Key
		}
		b.ds.Metrics = append(b.ds.Metrics, schema.Metric{
			Key:          m.Key,
			Name:         name,
			Type:         schema.MetricType(m.Type),
			DecimalScale: m.DecimalScale,
			Direction:    m.Direction,
			LeakOnly:     m.LeakOnly,
		})
	}

	for _, p := range f.Projects {
		branch := schema.BranchType(p.Branch)
		if branch == "" {
			branch = schema.LongBranch
		}
		rootUUID := orNewUUID(p.UUID)
		spec := p.ComponentSpec
		spec.UUID = rootUUID
		if spec.Qualifier == "" {
			spec.Qualifier = string(schema.ProjectQualifier)
		}
		if err := b.addTree(spec, nil, rootUUID, ".", branch); err != nil {
			return schema.Dataset{}, err
		}
		if p.Analysis != nil {
			b.ds.Snapshots = append(b.ds.Snapshots, schema.Snapshot{
				UUID:          orNewUUID(p.Analysis.UUID),
				ComponentUUID: rootUUID,
				CreatedAt:     p.Analysis.CreatedAt,
				PeriodDate:    p.Analysis.PeriodDate,
			})
		}
		if p.Gate != "" {
			id, ok := gateUUIDs[p.Gate]
			if !ok {
				return schema.Dataset{}, fmt.Errorf("project %s uses unknown gate %q", p.Key, p.Gate)
			}
			b.ds.ProjectGates[rootUUID] = id
		}
	}
	return b.ds, nil
}

type builder struct {
	ds   schema.Dataset
	keys map[string]struct{}
}

func (b *builder) addTree(spec ComponentSpec, parent *string, projectUUID, uuidPath string, branch schema.BranchType) error {
	if _, dup := b.keys[spec.Key]; dup {
		return fmt.Errorf("duplicate component key %q", spec.Key)
	}
	b.keys[spec.Key] = struct{}{}

	id := orNewUUID(spec.UUID)
	name := spec.Name
	if name == "" {
		name = lastSegment(spec.Key)
	}
	qualifier := schema.Qualifier(spec.Qualifier)
	if qualifier == "" {
		qualifier = schema.FileQualifier
		if len(spec.Children) > 0 {
			qualifier = schema.DirQualifier
		}
	}
	b.ds.Components = append(b.ds.Components, schema.Component{
		UUID:        id,
		Key:         spec.Key,
		Name:        name,
		Qualifier:   qualifier,
		ParentUUID:  parent,
		ProjectUUID: projectUUID,
		UUIDPath:    uuidPath,
		BranchType:  branch,
	})

	for _, is := range spec.Issues {
		status := schema.IssueStatus(is.Status)
		if status == "" {
			status = schema.StatusOpen
		}
		var res *schema.Resolution
		if is.Resolution != "" {
			r := schema.Resolution(is.Resolution)
			res = &r
		}
		b.ds.Issues = append(b.ds.Issues, schema.Issue{
			Key:           orNewUUID(is.Key),
			ComponentUUID: id,
			ProjectUUID:   projectUUID,
			RuleType:      schema.IssueType(is.Type),
			Severity:      schema.Severity(is.Severity),
			Status:        status,
			Resolution:    res,
			Effort:        is.Effort,
			CreatedAt:     is.CreatedAt,
		})
	}

	for _, m := range spec.Measures {
		b.ds.Measures = append(b.ds.Measures, schema.LiveMeasure{
			ComponentUUID: id,
			ProjectUUID:   projectUUID,
			MetricKey:     m.Metric,
			Value:         m.Value,
			Variation:     m.Variation,
			TextValue:     m.Text,
			UpdatedAt:     m.UpdatedAt,
		})
	}

	childPath := uuidPath + id + "."
	for _, child := range spec.Children {
		if err := b.addTree(child, &id, projectUUID, childPath, branch); err != nil {
			return err
		}
	}
	return nil
}

func orNewUUID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// lastSegment returns the part of a component key after the last ':' or '/'.
func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, ":/"); i >= 0 && i < len(key)-1 {
		return key[i+1:]
	}
	return key
}
