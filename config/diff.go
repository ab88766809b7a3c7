package config

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// A Diff is the difference between two configs, left and right
// where left is usually old and right is new. So the diff is the
// changes from left to right.
type Diff struct {
	Left, Right *Config
	Added       []ObjectConfig
	Modified    []ObjectConfig
	Removed     []ObjectConfig
	// TreeEqual is false when the tree itself must be rebuilt rather than its objects changed.
	TreeEqual    bool
	ObjectsEqual bool
	PrettyDiff   string
}

// DiffConfigs returns the difference between the two given configs
// from left to right.
func DiffConfigs(left, right Config, pretty bool) (_ *Diff, err error) {
	var prettyText string
	if pretty {
		prettyText, err = prettyDiff(left, right)
		if err != nil {
			return nil, err
		}
	}

	diff := Diff{
		Left:       &left,
		Right:      &right,
		PrettyDiff: prettyText,
	}
	diff.TreeEqual = left.Kind == right.Kind &&
		reflect.DeepEqual(left.Min, right.Min) &&
		reflect.DeepEqual(left.Max, right.Max) &&
		left.EffectiveMaxDepth() == right.EffectiveMaxDepth() &&
		left.MinNodeSize == right.MinNodeSize &&
		reflect.DeepEqual(left.HeightSpan, right.HeightSpan)
	diff.ObjectsEqual = !diffObjects(left.Objects, right.Objects, &diff)
	return &diff, nil
}

func prettyDiff(left, right Config) (string, error) {
	leftMd, err := json.MarshalIndent(left, "", " ")
	if err != nil {
		return "", err
	}
	rightMd, err := json.MarshalIndent(right, "", " ")
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(leftMd), string(rightMd), true)
	filteredDiffs := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		filteredDiffs = append(filteredDiffs, d)
	}
	return dmp.DiffPrettyText(filteredDiffs), nil
}

// String returns a pretty version of the diff.
func (diff *Diff) String() string {
	return diff.PrettyDiff
}

func diffObjects(left, right []ObjectConfig, diff *Diff) bool {
	leftIndex := make(map[string]int)
	leftM := make(map[string]ObjectConfig)
	for idx, l := range left {
		leftM[l.Name] = l
		leftIndex[l.Name] = idx
	}

	var removed []int

	var different bool
	for _, r := range right {
		l, ok := leftM[r.Name]
		delete(leftM, r.Name)
		if ok {
			if !reflect.DeepEqual(l, r) {
				diff.Modified = append(diff.Modified, r)
				different = true
			}
			continue
		}
		diff.Added = append(diff.Added, r)
		different = true
	}

	for k := range leftM {
		removed = append(removed, leftIndex[k])
		different = true
	}
	sort.Ints(removed)
	for _, idx := range removed {
		diff.Removed = append(diff.Removed, left[idx])
	}
	return different
}

// Apply brings a scene built from the left config in line with the right one by removing,
// inserting and moving objects. It fails if the tree itself differs.
func (diff *Diff) Apply(s *Scene) error {
	if !diff.TreeEqual {
		return errors.New("tree settings changed, the scene must be rebuilt")
	}
	for _, obj := range diff.Removed {
		if err := s.Remove(obj.Name); err != nil {
			return err
		}
	}
	for _, obj := range diff.Modified {
		if err := s.Update(obj); err != nil {
			return err
		}
	}
	for _, obj := range diff.Added {
		if err := s.Insert(obj); err != nil {
			return err
		}
	}
	return nil
}
