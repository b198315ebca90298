package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iodt2/twincatalog/vocabulary/twin"
)

// queryHeader declares the prefixes the catalog queries use.
var queryHeader = fmt.Sprintf("PREFIX ts: <%s>\nPREFIX tsd: <%s>\n",
	twin.Namespace, twin.DataNamespace)

// InterfaceSummary is one row of an interface listing.
type InterfaceSummary struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	GeneratedAt string `json:"generatedAt,omitempty"`
	Graph       string `json:"graph"`
}

// InstanceSummary is one row of an instance listing.
type InstanceSummary struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	InterfaceName string `json:"interfaceName"`
	Graph         string `json:"graph"`
}

// PropertyDetail is a property row in an interface detail view.
type PropertyDetail struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Writable    bool   `json:"writable"`
}

// RelationshipDetail is a relationship row in an interface detail view.
type RelationshipDetail struct {
	Name            string `json:"name"`
	TargetInterface string `json:"targetInterface,omitempty"`
	Description     string `json:"description,omitempty"`
}

// CommandDetail is a command row in an interface detail view.
type CommandDetail struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// InterfaceDetail is the full view of one stored interface.
type InterfaceDetail struct {
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	GeneratedAt   string               `json:"generatedAt,omitempty"`
	GeneratedBy   string               `json:"generatedBy,omitempty"`
	Properties    []PropertyDetail     `json:"properties"`
	Relationships []RelationshipDetail `json:"relationships"`
	Commands      []CommandDetail      `json:"commands"`
}

// ThingSummary is one interface or instance in a combined listing.
type ThingSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // TwinInterface or TwinInstance
	Description string `json:"description,omitempty"`
	Graph       string `json:"graph"`
	OriginalID  string `json:"originalId,omitempty"`
	ThingType   string `json:"thingType,omitempty"`
}

// ThingPage is one page of a combined listing.
type ThingPage struct {
	Items    []ThingSummary `json:"items"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Total    int            `json:"total"`
}

// ThingProperty is a property in a thing detail view.
type ThingProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ThingDetail is the full view of one thing, found by URI, name, or
// graph fragment.
type ThingDetail struct {
	ThingSummary
	Properties map[string]ThingProperty `json:"properties"`
}

// InstanceRelationshipRow is one relationship of a stored instance.
type InstanceRelationshipRow struct {
	Name            string `json:"relName"`
	TargetInstance  string `json:"targetInstance"`
	TargetInterface string `json:"targetInterface"`
	Graph           string `json:"graph"`
}

// PropertyMatch is one interface matched by a property schema search.
type PropertyMatch struct {
	ThingID      string `json:"thingId"`
	Name         string `json:"name"`
	Property     string `json:"property"`
	PropertyType string `json:"propertyType"`
	Min          string `json:"min,omitempty"`
	Max          string `json:"max,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Description  string `json:"description,omitempty"`
	ThingType    string `json:"thingType,omitempty"`
	Graph        string `json:"graph"`
}

// PropertySearchResult is the outcome of a property schema search.
type PropertySearchResult struct {
	Results   []PropertyMatch `json:"results"`
	Count     int             `json:"count"`
	Property  string          `json:"property"`
	Operator  string          `json:"operator"`
	Value     float64         `json:"value"`
	QueryTime time.Duration   `json:"-"`
}

// Health reports triplestore connectivity.
type Health struct {
	Status      string `json:"status"`
	TripleCount string `json:"triple_count,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Interfaces lists stored TwinInterfaces, optionally filtered by a
// case-insensitive name substring.
func (s *GraphStore) Interfaces(ctx context.Context, nameFilter string, limit int, tenant string) ([]InterfaceSummary, error) {
	filterClause := ""
	if nameFilter != "" {
		filterClause = fmt.Sprintf(`FILTER(CONTAINS(LCASE(?name), "%s"))`,
			escapeLiteral(strings.ToLower(nameFilter)))
	}

	query := queryHeader + fmt.Sprintf(`
SELECT DISTINCT ?interface ?name ?description ?generatedAt ?graph
WHERE {
    GRAPH ?graph {
        ?interface a ts:TwinInterface .
        FILTER NOT EXISTS { ?interface a ts:TwinInstance }
        ?interface ts:name ?name .
        OPTIONAL { ?interface ts:description ?description }
        OPTIONAL { ?interface ts:generatedAt ?generatedAt }
        %s
    }
    %s
}
ORDER BY ?name
LIMIT %d`, filterClause, s.TenantFilter(tenant), limit)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query interfaces: %w", err)
	}

	rows := results.Rows()
	summaries := make([]InterfaceSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, InterfaceSummary{
			URI:         row["interface"],
			Name:        row["name"],
			Description: row["description"],
			GeneratedAt: row["generatedAt"],
			Graph:       row["graph"],
		})
	}
	return summaries, nil
}

// Instances lists stored TwinInstances, optionally restricted to one
// interface.
func (s *GraphStore) Instances(ctx context.Context, interfaceName string, limit int, tenant string) ([]InstanceSummary, error) {
	interfaceClause := ""
	if interfaceName != "" {
		interfaceClause = fmt.Sprintf("?instance ts:instanceOf <%s> .",
			twin.InterfaceURI(interfaceName))
	}

	query := queryHeader + fmt.Sprintf(`
SELECT ?instance ?name ?interfaceName ?graph
WHERE {
    GRAPH ?graph {
        ?instance a ts:TwinInstance .
        ?instance ts:name ?name .
        ?instance ts:instanceOf ?interface .
        ?interface ts:name ?interfaceName .
        %s
    }
    %s
}
ORDER BY ?name
LIMIT %d`, interfaceClause, s.strictTenantFilter(tenant), limit)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}

	rows := results.Rows()
	summaries := make([]InstanceSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, InstanceSummary{
			URI:           row["instance"],
			Name:          row["name"],
			InterfaceName: row["interfaceName"],
			Graph:         row["graph"],
		})
	}
	return summaries, nil
}

// InterfaceDetails fetches the full view of one interface, folding the
// cross-product rows back into property, relationship, and command lists.
// Returns ErrNotFound when no graph holds the interface.
func (s *GraphStore) InterfaceDetails(ctx context.Context, interfaceName, tenant string) (*InterfaceDetail, error) {
	interfaceURI := twin.InterfaceURI(interfaceName)

	query := queryHeader + fmt.Sprintf(`
SELECT ?name ?description ?generatedAt ?generatedBy
       ?propName ?propType ?propDesc ?writable
       ?relName ?relTarget ?relDesc
       ?cmdName ?cmdDesc ?graph
WHERE {
    GRAPH ?graph {
        <%[1]s> a ts:TwinInterface .
        <%[1]s> ts:name ?name .
        OPTIONAL { <%[1]s> ts:description ?description }
        OPTIONAL { <%[1]s> ts:generatedAt ?generatedAt }
        OPTIONAL { <%[1]s> ts:generatedBy ?generatedBy }

        OPTIONAL {
            <%[1]s> ts:hasProperty ?prop .
            ?prop ts:propertyName ?propName .
            ?prop ts:propertyType ?propType .
            OPTIONAL { ?prop ts:description ?propDesc }
            OPTIONAL { ?prop ts:writable ?writable }
        }

        OPTIONAL {
            <%[1]s> ts:hasRelationship ?rel .
            ?rel ts:relationshipName ?relName .
            ?rel ts:targetInterface ?relTarget .
            OPTIONAL { ?rel ts:description ?relDesc }
        }

        OPTIONAL {
            <%[1]s> ts:hasCommand ?cmd .
            ?cmd ts:commandName ?cmdName .
            OPTIONAL { ?cmd ts:description ?cmdDesc }
        }
    }
    %[2]s
}`, interfaceURI, s.strictTenantFilter(tenant))

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query interface details: %w", err)
	}
	return foldInterfaceDetails(results)
}

// foldInterfaceDetails rebuilds an InterfaceDetail from the row
// cross-product. The first occurrence of each named part wins; later
// rows repeating it are the product of the other OPTIONAL blocks.
func foldInterfaceDetails(results *Results) (*InterfaceDetail, error) {
	rows := results.Rows()
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	first := rows[0]
	detail := &InterfaceDetail{
		Name:          first["name"],
		Description:   first["description"],
		GeneratedAt:   first["generatedAt"],
		GeneratedBy:   first["generatedBy"],
		Properties:    []PropertyDetail{},
		Relationships: []RelationshipDetail{},
		Commands:      []CommandDetail{},
	}

	seenProps := make(map[string]bool)
	seenRels := make(map[string]bool)
	seenCmds := make(map[string]bool)

	for _, row := range rows {
		if name, ok := row["propName"]; ok && !seenProps[name] {
			detail.Properties = append(detail.Properties, PropertyDetail{
				Name:        name,
				Type:        row["propType"],
				Description: row["propDesc"],
				Writable:    row["writable"] == "true",
			})
			seenProps[name] = true
		}
		if name, ok := row["relName"]; ok && !seenRels[name] {
			detail.Relationships = append(detail.Relationships, RelationshipDetail{
				Name:            name,
				TargetInterface: row["relTarget"],
				Description:     row["relDesc"],
			})
			seenRels[name] = true
		}
		if name, ok := row["cmdName"]; ok && !seenCmds[name] {
			detail.Commands = append(detail.Commands, CommandDetail{
				Name:        name,
				Description: row["cmdDesc"],
			})
			seenCmds[name] = true
		}
	}
	return detail, nil
}

// Search finds interfaces and instances whose name, graph URI,
// description, or original ID contains the query, case-insensitively.
func (s *GraphStore) Search(ctx context.Context, text, tenant string, limit int) ([]ThingSummary, error) {
	needle := strings.ToLower(escapeLiteral(text))

	query := queryHeader + fmt.Sprintf(`
SELECT DISTINCT ?uri ?name ?type ?description ?graph ?originalId ?thingType
WHERE {
    GRAPH ?graph {
        ?uri ts:name ?name .
        ?uri a ?type .
        FILTER(?type IN (ts:TwinInterface, ts:TwinInstance))
        OPTIONAL { ?uri ts:description ?description }
        OPTIONAL { ?uri ts:originalId ?originalId }
        OPTIONAL { ?uri ts:thingType ?thingType }
    }
    %s
    FILTER(
        CONTAINS(LCASE(STR(?name)), "%[2]s")
        || CONTAINS(LCASE(STR(?graph)), "%[2]s")
        || (BOUND(?description) && CONTAINS(LCASE(STR(?description)), "%[2]s"))
        || (BOUND(?originalId) && CONTAINS(LCASE(STR(?originalId)), "%[2]s"))
    )
}
ORDER BY ?name
LIMIT %d`, s.TenantFilter(tenant), needle, limit)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return thingSummaries(results), nil
}

// Things lists all interfaces and instances with pagination. Page numbers
// are 1-based.
func (s *GraphStore) Things(ctx context.Context, page, pageSize int, tenant string) (*ThingPage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := queryHeader + fmt.Sprintf(`
SELECT ?uri ?name ?type ?description ?graph ?originalId ?thingType
WHERE {
    GRAPH ?graph {
        ?uri ts:name ?name .
        ?uri a ?type .
        FILTER(?type IN (ts:TwinInterface, ts:TwinInstance))
        OPTIONAL { ?uri ts:description ?description }
        OPTIONAL { ?uri ts:originalId ?originalId }
        OPTIONAL { ?uri ts:thingType ?thingType }
    }
    %s
}
ORDER BY ?name
OFFSET %d
LIMIT %d`, s.TenantFilter(tenant), offset, pageSize)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query things: %w", err)
	}

	items := thingSummaries(results)
	return &ThingPage{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    len(items),
	}, nil
}

// ThingByID finds one thing by exact URI, exact name, or graph URI
// fragment, including its property schema. Returns ErrNotFound when
// nothing matches.
func (s *GraphStore) ThingByID(ctx context.Context, thingID, tenant string) (*ThingDetail, error) {
	safeID := escapeLiteral(thingID)

	query := queryHeader + fmt.Sprintf(`
SELECT ?uri ?name ?type ?description ?graph ?originalId ?thingType
       ?propName ?propType ?propDesc
WHERE {
    GRAPH ?graph {
        ?uri a ?type .
        ?uri ts:name ?name .
        FILTER(?type IN (ts:TwinInterface, ts:TwinInstance))
        FILTER(
            STR(?uri) = "%[2]s"
            || STR(?name) = "%[2]s"
            || CONTAINS(STR(?graph), "%[2]s")
        )
        OPTIONAL { ?uri ts:description ?description }
        OPTIONAL { ?uri ts:originalId ?originalId }
        OPTIONAL { ?uri ts:thingType ?thingType }
        OPTIONAL {
            ?uri ts:hasProperty ?prop .
            ?prop ts:propertyName ?propName .
            ?prop ts:propertyType ?propType .
            OPTIONAL { ?prop ts:description ?propDesc }
        }
    }
    %[1]s
}`, s.TenantFilter(tenant), safeID)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query thing by id: %w", err)
	}

	rows := results.Rows()
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	first := rows[0]
	detail := &ThingDetail{
		ThingSummary: ThingSummary{
			ID:          first["uri"],
			Name:        first["name"],
			Type:        thingType(first["type"]),
			Description: first["description"],
			Graph:       first["graph"],
			OriginalID:  first["originalId"],
			ThingType:   first["thingType"],
		},
		Properties: make(map[string]ThingProperty),
	}

	for _, row := range rows {
		name, ok := row["propName"]
		if !ok {
			continue
		}
		if _, dup := detail.Properties[name]; dup {
			continue
		}
		propType := row["propType"]
		if propType == "" {
			propType = "string"
		}
		detail.Properties[name] = ThingProperty{
			Type:        propType,
			Description: row["propDesc"],
		}
	}
	return detail, nil
}

// InstanceRelationships lists the relationships of one stored instance,
// resolving each target's name and interface.
func (s *GraphStore) InstanceRelationships(ctx context.Context, instanceName, tenant string) ([]InstanceRelationshipRow, error) {
	instanceURI := twin.InstanceURI(instanceName)

	query := queryHeader + fmt.Sprintf(`
SELECT ?relName ?targetInstance ?targetInterface ?graph
WHERE {
    GRAPH ?graph {
        <%s> ts:hasInstanceRelationship ?rel .
        ?rel ts:relationshipName ?relName .
        ?rel ts:targetInstance ?target .
        ?target ts:name ?targetInstance .
        ?target ts:instanceOf ?interface .
        ?interface ts:name ?targetInterface .
    }
    %s
}`, instanceURI, s.strictTenantFilter(tenant))

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query instance relationships: %w", err)
	}

	rows := results.Rows()
	rels := make([]InstanceRelationshipRow, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, InstanceRelationshipRow{
			Name:            row["relName"],
			TargetInstance:  row["targetInstance"],
			TargetInterface: row["targetInterface"],
			Graph:           row["graph"],
		})
	}
	return rels, nil
}

// SearchByProperty finds interfaces declaring a property whose name
// contains propertyName, optionally constrained by comparing value
// against the property's declared min/max range. Unbounded ranges always
// satisfy the comparison.
func (s *GraphStore) SearchByProperty(
	ctx context.Context,
	propertyName, operator string,
	value float64,
	tenant string,
	limit int,
) (*PropertySearchResult, error) {
	start := time.Now()

	needle := strings.ToLower(escapeLiteral(propertyName))
	lit := strconv.FormatFloat(value, 'f', -1, 64)

	valueFilter := ""
	switch operator {
	case "gt":
		valueFilter = fmt.Sprintf("&& (?propMax > %s || !BOUND(?propMax))", lit)
	case "gte":
		valueFilter = fmt.Sprintf("&& (?propMax >= %s || !BOUND(?propMax))", lit)
	case "lt":
		valueFilter = fmt.Sprintf("&& (?propMin < %s || !BOUND(?propMin))", lit)
	case "lte":
		valueFilter = fmt.Sprintf("&& (?propMin <= %s || !BOUND(?propMin))", lit)
	case "eq":
		valueFilter = fmt.Sprintf(
			"&& (?propMin <= %[1]s || !BOUND(?propMin)) && (?propMax >= %[1]s || !BOUND(?propMax))", lit)
	}

	query := queryHeader + fmt.Sprintf(`
SELECT DISTINCT ?interface ?name ?propName ?propType ?propMin ?propMax ?unit ?description ?graph ?thingType
WHERE {
    GRAPH ?graph {
        ?interface a ts:TwinInterface .
        ?interface ts:name ?name .
        ?interface ts:hasProperty ?prop .
        ?prop ts:propertyName ?propName .
        ?prop ts:propertyType ?propType .
        FILTER(CONTAINS(LCASE(STR(?propName)), "%s"))
        OPTIONAL { ?prop ts:minimum ?propMin }
        OPTIONAL { ?prop ts:maximum ?propMax }
        OPTIONAL { ?prop ts:unit ?unit }
        OPTIONAL { ?interface ts:description ?description }
        OPTIONAL { ?interface ts:thingType ?thingType }
    }
    %s
    FILTER(true %s)
}
ORDER BY ?name
LIMIT %d`, needle, s.TenantFilter(tenant), valueFilter, limit)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search by property: %w", err)
	}

	rows := results.Rows()
	matches := make([]PropertyMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, PropertyMatch{
			ThingID:      row["interface"],
			Name:         row["name"],
			Property:     row["propName"],
			PropertyType: row["propType"],
			Min:          row["propMin"],
			Max:          row["propMax"],
			Unit:         row["unit"],
			Description:  row["description"],
			ThingType:    row["thingType"],
			Graph:        row["graph"],
		})
	}

	return &PropertySearchResult{
		Results:   matches,
		Count:     len(matches),
		Property:  propertyName,
		Operator:  operator,
		Value:     value,
		QueryTime: time.Since(start),
	}, nil
}

// CheckHealth probes the triplestore with a trivial count query. It never
// returns an error; failures are reported in the Health value.
func (s *GraphStore) CheckHealth(ctx context.Context) Health {
	results, err := s.client.Query(ctx,
		"SELECT (COUNT(*) AS ?count) WHERE { ?s ?p ?o } LIMIT 1")
	if err != nil {
		return Health{Status: "unhealthy", Error: err.Error()}
	}

	count := "0"
	if rows := results.Rows(); len(rows) > 0 && rows[0]["count"] != "" {
		count = rows[0]["count"]
	}
	return Health{Status: "healthy", TripleCount: count}
}

func thingSummaries(results *Results) []ThingSummary {
	rows := results.Rows()
	items := make([]ThingSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, ThingSummary{
			ID:          row["uri"],
			Name:        row["name"],
			Type:        thingType(row["type"]),
			Description: row["description"],
			Graph:       row["graph"],
			OriginalID:  row["originalId"],
			ThingType:   row["thingType"],
		})
	}
	return items
}

func thingType(typeURI string) string {
	if strings.Contains(typeURI, "TwinInterface") {
		return "TwinInterface"
	}
	return "TwinInstance"
}
