package csi

import "os"

// Env is a read-only source of fallback variables.
type Env interface {
	LookupEnv(name string) (string, bool)
}

// OSEnv reads the process environment.
type OSEnv struct{}

func (OSEnv) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapEnv is a fixed set of variables, mostly useful in tests.
type MapEnv map[string]string

func (m MapEnv) LookupEnv(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// ChainEnv consults each Env in order and returns the first hit.
type ChainEnv []Env

func (c ChainEnv) LookupEnv(name string) (string, bool) {
	for _, e := range c {
		if e == nil {
			continue
		}
		if v, ok := e.LookupEnv(name); ok {
			return v, true
		}
	}
	return "", false
}
