package uuid

import gonanoid "github.com/matoous/go-nanoid"

// SessionAlphabet alphanumeric alphabet, safe to embed in redis keys and JWT claims
const SessionAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generator id generator interface
type Generator interface {
	Generate() (string, error)
}

// NanoIDGenerator Generator implementation using NanoID
type NanoIDGenerator struct {
	Length   int
	Alphabet string // empty means the nanoid default alphabet
}

var _ Generator = &NanoIDGenerator{}

// NewNanoIDGenerator create a new `NanoIDGenerator` instance
func NewNanoIDGenerator(length int) *NanoIDGenerator {
	if length < 1 {
		panic("length must be larger than 1")
	}
	return &NanoIDGenerator{Length: length}
}

// NewSessionIDGenerator generator for gateway session ids
func NewSessionIDGenerator(length int) *NanoIDGenerator {
	g := NewNanoIDGenerator(length)
	g.Alphabet = SessionAlphabet
	return g
}

// Generate generate id
func (ns *NanoIDGenerator) Generate() (string, error) {
	if ns.Alphabet == "" {
		return gonanoid.Nanoid(ns.Length)
	}
	return gonanoid.Generate(ns.Alphabet, ns.Length)
}
