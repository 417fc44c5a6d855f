package featurizer_test

import (
	"fmt"
)

// recordingBuilder is a fake featurizer.Builder that stores every named
// value it's given, for test assertions, and rejects a name written
// twice within the same transaction as a logic error.
type recordingBuilder struct {
	seen map[string]bool

	scalarsInt64   map[string]int64
	scalarsFloat32 map[string]float32
	scalarsBool    map[string]bool

	vectorsInt64   map[string][]int64
	vectorsFloat32 map[string][]float32
	vectorsBool    map[string][]bool

	matricesInt64   map[string][][]int64
	matricesFloat32 map[string][][]float32
	matricesBool    map[string][][]bool
}

func newRecordingBuilder() *recordingBuilder {
	return &recordingBuilder{
		seen:            map[string]bool{},
		scalarsInt64:    map[string]int64{},
		scalarsFloat32:  map[string]float32{},
		scalarsBool:     map[string]bool{},
		vectorsInt64:    map[string][]int64{},
		vectorsFloat32:  map[string][]float32{},
		vectorsBool:     map[string][]bool{},
		matricesInt64:   map[string][][]int64{},
		matricesFloat32: map[string][][]float32{},
		matricesBool:    map[string][][]bool{},
	}
}

func (b *recordingBuilder) claim(name string) error {
	if b.seen[name] {
		return fmt.Errorf("duplicate builder name %q", name)
	}
	b.seen[name] = true
	return nil
}

func (b *recordingBuilder) AddScalarInt64(name string, value int64) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.scalarsInt64[name] = value
	return nil
}

func (b *recordingBuilder) AddScalarFloat32(name string, value float32) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.scalarsFloat32[name] = value
	return nil
}

func (b *recordingBuilder) AddScalarBool(name string, value bool) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.scalarsBool[name] = value
	return nil
}

func (b *recordingBuilder) AddVectorInt64(name string, values []int64) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.vectorsInt64[name] = values
	return nil
}

func (b *recordingBuilder) AddVectorFloat32(name string, values []float32) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.vectorsFloat32[name] = values
	return nil
}

func (b *recordingBuilder) AddVectorBool(name string, values []bool) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.vectorsBool[name] = values
	return nil
}

func (b *recordingBuilder) AddMatrixInt64(name string, values [][]int64) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.matricesInt64[name] = values
	return nil
}

func (b *recordingBuilder) AddMatrixFloat32(name string, values [][]float32) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.matricesFloat32[name] = values
	return nil
}

func (b *recordingBuilder) AddMatrixBool(name string, values [][]bool) error {
	if err := b.claim(name); err != nil {
		return err
	}
	b.matricesBool[name] = values
	return nil
}
