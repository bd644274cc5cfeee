package driver

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"tmplc/internal/globals"
	"tmplc/internal/plugin"
	"tmplc/internal/project"
	"tmplc/internal/pysrc"
)

// buildSurface is everything besides the source text that changes what a
// unit generates.
type buildSurface struct {
	Schema    uint16
	Python    pysrc.Options
	Globals   []byte
	Functions []plugin.Function
	Salt      string
}

// Fingerprint digests the build surface of req. Two requests with equal
// fingerprints generate the same module from the same source.
func Fingerprint(req *Request) (project.Digest, error) {
	surface := buildSurface{
		Schema: cacheSchemaVersion,
		Python: req.Python,
		Salt:   req.CacheSalt,
	}
	if req.Globals != nil {
		var buf bytes.Buffer
		if err := globals.Generate(&buf, req.Globals); err != nil {
			return project.Digest{}, fmt.Errorf("fingerprint globals: %w", err)
		}
		surface.Globals = buf.Bytes()
	}
	for _, name := range req.Functions.Names() {
		fn, _ := req.Functions.Lookup(name)
		surface.Functions = append(surface.Functions, fn)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(&surface); err != nil {
		return project.Digest{}, fmt.Errorf("fingerprint: %w", err)
	}
	return project.DigestOf(buf.Bytes()), nil
}

// UnitKey is the cache key of one source file under a build fingerprint.
func UnitKey(content [32]byte, fingerprint project.Digest) project.Digest {
	return project.Combine(project.Digest(content), fingerprint)
}
