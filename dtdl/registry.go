package dtdl

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
)

//go:embed library
var embeddedLibrary embed.FS

// registryFile is the index document at the library root.
const registryFile = "registry.json"

// registryIndex is the wire shape of registry.json.
type registryIndex struct {
	Version          string              `json:"version"`
	Interfaces       []indexEntry        `json:"interfaces"`
	ThingTypeMapping map[string][]string `json:"thingTypeMapping"`
	DomainMapping    map[string][]string `json:"domainMapping"`
	BaseInterfaces   map[string]string   `json:"baseInterfaces"`
}

type indexEntry struct {
	DTMI        string   `json:"dtmi"`
	File        string   `json:"file"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	ThingType   string   `json:"thingType"`
	Telemetry   []string `json:"telemetry"`
	Properties  []string `json:"properties"`
}

// snapshot is one immutable view of the catalog. Readers hold it for the
// duration of a call; Reload builds a replacement and swaps the pointer.
type snapshot struct {
	entries          []*Entry
	byDTMI           map[string]*Entry
	thingTypeMapping map[string][]string
	domainMapping    map[string][]string
	baseInterfaces   map[string]string
	domainMembers    map[string]map[string]bool
}

// Registry is the DTDL interface catalog. All read methods are lock-free;
// Reload replaces the whole snapshot atomically, so readers see either
// the old catalog or the new one, never a mix.
type Registry struct {
	fsys    fs.FS
	source  string
	logger  *slog.Logger
	current atomic.Pointer[snapshot]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLibraryDir loads the catalog from a directory on disk instead of
// the embedded library.
func WithLibraryDir(path string) RegistryOption {
	return func(r *Registry) {
		r.fsys = os.DirFS(path)
		r.source = path
	}
}

// WithLibraryFS loads the catalog from the given filesystem.
func WithLibraryFS(fsys fs.FS, source string) RegistryOption {
	return func(r *Registry) {
		r.fsys = fsys
		r.source = source
	}
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry and performs the initial load. Without
// options it serves the embedded default library.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	sub, err := fs.Sub(embeddedLibrary, "library")
	if err != nil {
		return nil, fmt.Errorf("embedded library: %w", err)
	}

	r := &Registry{
		fsys:   sub,
		source: "embedded",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rebuilds the catalog from the library and swaps it in. On
// failure the previous snapshot keeps serving.
func (r *Registry) Reload() error {
	snap, err := r.load()
	if err != nil {
		return fmt.Errorf("load dtdl library: %w", err)
	}

	r.current.Store(snap)
	r.logger.Info("dtdl library loaded",
		"source", r.source,
		"interfaces", len(snap.entries),
		"domains", len(snap.domainMapping),
		"thing_types", len(snap.thingTypeMapping))
	return nil
}

func (r *Registry) load() (*snapshot, error) {
	indexData, err := fs.ReadFile(r.fsys, registryFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", registryFile, err)
	}

	var index registryIndex
	if err := json.Unmarshal(indexData, &index); err != nil {
		return nil, fmt.Errorf("decode %s: %w", registryFile, err)
	}

	snap := &snapshot{
		byDTMI:           make(map[string]*Entry),
		thingTypeMapping: index.ThingTypeMapping,
		domainMapping:    index.DomainMapping,
		baseInterfaces:   index.BaseInterfaces,
		domainMembers:    make(map[string]map[string]bool, len(index.DomainMapping)),
	}
	if snap.thingTypeMapping == nil {
		snap.thingTypeMapping = map[string][]string{}
	}
	if snap.domainMapping == nil {
		snap.domainMapping = map[string][]string{}
	}
	if snap.baseInterfaces == nil {
		snap.baseInterfaces = map[string]string{}
	}
	for domain, dtmis := range snap.domainMapping {
		members := make(map[string]bool, len(dtmis))
		for _, dtmi := range dtmis {
			members[dtmi] = true
		}
		snap.domainMembers[domain] = members
	}

	loadedFiles := make(map[string]bool, len(index.Interfaces)+1)
	loadedFiles[registryFile] = true

	// Indexed interfaces first, in catalog order.
	for _, ie := range index.Interfaces {
		if !ValidateDTMI(ie.DTMI) {
			return nil, fmt.Errorf("registry entry %q: invalid DTMI", ie.DTMI)
		}

		iface, err := r.readInterface(ie.File)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", ie.DTMI, err)
		}
		loadedFiles[ie.File] = true

		entry := &Entry{
			DTMI:        ie.DTMI,
			DisplayName: ie.DisplayName,
			Description: ie.Description,
			Category:    ie.Category,
			Tags:        ie.Tags,
			ThingType:   ie.ThingType,
			Telemetry:   ie.Telemetry,
			Properties:  ie.Properties,
			Interface:   iface,
		}
		snap.entries = append(snap.entries, entry)
		snap.byDTMI[entry.DTMI] = entry
	}

	// Pick up interface files dropped into the library but not yet
	// indexed, so a reload sees them without editing registry.json.
	files, err := doublestar.Glob(r.fsys, "**/*.json")
	if err != nil {
		return nil, fmt.Errorf("scan library: %w", err)
	}
	for _, file := range files {
		if loadedFiles[file] {
			continue
		}
		iface, err := r.readInterface(file)
		if err != nil || !ValidateDTMI(iface.ID) {
			r.logger.Warn("skipping unindexed library file", "file", file, "error", err)
			continue
		}
		if _, dup := snap.byDTMI[iface.ID]; dup {
			continue
		}
		entry := entryFromInterface(iface)
		snap.entries = append(snap.entries, entry)
		snap.byDTMI[entry.DTMI] = entry
	}

	return snap, nil
}

func (r *Registry) readInterface(file string) (*Interface, error) {
	data, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return nil, err
	}
	var iface Interface
	if err := json.Unmarshal(data, &iface); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return &iface, nil
}

// entryFromInterface derives index metadata for an unindexed file.
func entryFromInterface(iface *Interface) *Entry {
	entry := &Entry{
		DTMI:        iface.ID,
		DisplayName: string(iface.DisplayName),
		Description: string(iface.Description),
		Interface:   iface,
	}
	for _, c := range iface.Contents {
		switch {
		case c.Is(TelemetryContent):
			entry.Telemetry = append(entry.Telemetry, c.Name)
		case c.Is(PropertyContent):
			entry.Properties = append(entry.Properties, c.Name)
		}
	}
	return entry
}

// Filter selects catalog entries. All set fields must match.
type Filter struct {
	ThingType string
	Domain    string
	Category  string
	Tags      []string // every tag must be present
	Keywords  string   // case-insensitive substring of displayName or description
}

// Search returns the entries matching the filter, in catalog order.
func (r *Registry) Search(f Filter) []*Entry {
	snap := r.current.Load()
	keywords := strings.ToLower(f.Keywords)

	var out []*Entry
	for _, e := range snap.entries {
		if f.ThingType != "" && e.ThingType != f.ThingType {
			continue
		}
		if f.Domain != "" && !snap.domainMembers[f.Domain][e.DTMI] {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if !hasAllTags(e.Tags, f.Tags) {
			continue
		}
		if keywords != "" &&
			!strings.Contains(strings.ToLower(e.DisplayName), keywords) &&
			!strings.Contains(strings.ToLower(e.Description), keywords) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Get returns the entry for a DTMI.
func (r *Registry) Get(dtmi string) (*Entry, bool) {
	e, ok := r.current.Load().byDTMI[dtmi]
	return e, ok
}

// All returns every entry in catalog order.
func (r *Registry) All() []*Entry {
	snap := r.current.Load()
	return append([]*Entry(nil), snap.entries...)
}

// Len returns the number of catalog entries.
func (r *Registry) Len() int {
	return len(r.current.Load().entries)
}

// InDomain reports whether a DTMI belongs to a domain.
func (r *Registry) InDomain(dtmi, domain string) bool {
	return r.current.Load().domainMembers[domain][dtmi]
}

// Domains returns the domain to DTMI mapping.
func (r *Registry) Domains() map[string][]string {
	return copyMapping(r.current.Load().domainMapping)
}

// ThingTypes returns the thing type to DTMI mapping.
func (r *Registry) ThingTypes() map[string][]string {
	return copyMapping(r.current.Load().thingTypeMapping)
}

// BaseForThingType returns the recommended base interface for a thing
// type.
func (r *Registry) BaseForThingType(thingType string) (string, bool) {
	dtmi, ok := r.current.Load().baseInterfaces[thingType]
	return dtmi, ok
}

func copyMapping(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
