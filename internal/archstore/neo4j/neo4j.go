// Package neo4j stores architecture models in Neo4j. Every element node is
// attached to its model node, and the encoded model is kept on the model node
// so it can be loaded back losslessly.
package neo4j

import (
	"bytes"
	"context"
	"fmt"

	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/archstore"
	"github.com/efebarandurmaz/archrecover/internal/observability"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Repository implements archstore.Repository using Neo4j.
type Repository struct {
	driver neo4j.DriverWithContext
}

// New creates a Neo4j-backed repository.
func New(ctx context.Context, uri, username, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Repository{driver: driver}, nil
}

type statement struct {
	query  string
	params map[string]any
}

// statements renders the writes that replace the model in the database.
func statements(m *arch.Model) ([]statement, error) {
	var doc bytes.Buffer
	if err := arch.Encode(&doc, m); err != nil {
		return nil, err
	}

	stmts := []statement{
		{
			query: "MATCH (m:ArchModel {name: $model}) " +
				"OPTIONAL MATCH (m)-[:CONTAINS]->(n) " +
				"DETACH DELETE n, m",
			params: map[string]any{"model": m.Name},
		},
		{
			query:  "CREATE (m:ArchModel {name: $model, id: $id, document: $document})",
			params: map[string]any{"model": m.Name, "id": m.ID, "document": doc.String()},
		},
	}

	types := m.DataTypes()
	for _, dt := range types {
		stmts = append(stmts, statement{
			query: "MATCH (m:ArchModel {name: $model}) " +
				"MERGE (d:DataType {model: $model, key: $key}) " +
				"SET d.kind = $kind, d.name = $name " +
				"MERGE (m)-[:CONTAINS]->(d)",
			params: map[string]any{"model": m.Name, "key": dt.Key(), "kind": string(dt.Kind), "name": dt.String()},
		})
	}
	for _, dt := range types {
		if dt.Element != nil {
			stmts = append(stmts, statement{
				query: "MATCH (c:DataType {model: $model, key: $key}), (e:DataType {model: $model, key: $element}) " +
					"MERGE (c)-[:OF]->(e)",
				params: map[string]any{"model": m.Name, "key": dt.Key(), "element": dt.Element.Key()},
			})
		}
	}

	for _, iface := range m.Interfaces() {
		stmts = append(stmts, statement{
			query: "MATCH (m:ArchModel {name: $model}) " +
				"MERGE (i:Interface {model: $model, name: $name}) " +
				"MERGE (m)-[:CONTAINS]->(i)",
			params: map[string]any{"model": m.Name, "name": iface.Name},
		})
		for pos, sig := range iface.Signatures {
			params := map[string]any{
				"model":     m.Name,
				"interface": iface.Name,
				"signature": sig.String(),
				"name":      sig.Name,
				"position":  pos,
			}
			query := "MATCH (m:ArchModel {name: $model}), (i:Interface {model: $model, name: $interface}) " +
				"CREATE (s:Signature {model: $model, name: $name, text: $signature, position: $position}) " +
				"MERGE (m)-[:CONTAINS]->(s) " +
				"MERGE (i)-[:DECLARES]->(s)"
			if sig.Returns != nil {
				params["returns"] = sig.Returns.Key()
				query += " WITH s MATCH (r:DataType {model: $model, key: $returns}) MERGE (s)-[:RETURNS]->(r)"
			}
			stmts = append(stmts, statement{query: query, params: params})
			for i, p := range sig.Parameters {
				stmts = append(stmts, statement{
					query: "MATCH (:Interface {model: $model, name: $interface})-[:DECLARES]->(s:Signature {position: $position}), " +
						"(d:DataType {model: $model, key: $type}) " +
						"CREATE (s)-[:ACCEPTS {index: $index, name: $param, modifier: $modifier}]->(d)",
					params: map[string]any{
						"model":     m.Name,
						"interface": iface.Name,
						"position":  pos,
						"type":      p.Type.Key(),
						"index":     i,
						"param":     p.Name,
						"modifier":  string(p.Modifier),
					},
				})
			}
		}
	}

	for _, c := range m.Components() {
		stmts = append(stmts, statement{
			query: "MATCH (m:ArchModel {name: $model}) " +
				"MERGE (c:Component {model: $model, name: $name}) " +
				"MERGE (m)-[:CONTAINS]->(c)",
			params: map[string]any{"model": m.Name, "name": c.Name},
		})
		roles := []struct {
			rel   string
			ifces []*arch.Interface
		}{
			{"PROVIDES", c.Provided()},
			{"REQUIRES", c.Required()},
		}
		for _, role := range roles {
			for _, iface := range role.ifces {
				stmts = append(stmts, statement{
					query: "MATCH (c:Component {model: $model, name: $component}), (i:Interface {model: $model, name: $interface}) " +
						"MERGE (c)-[:" + role.rel + "]->(i)",
					params: map[string]any{"model": m.Name, "component": c.Name, "interface": iface.Name},
				})
			}
		}
	}
	return stmts, nil
}

func (r *Repository) StoreModel(ctx context.Context, m *arch.Model) error {
	ctx, span := observability.StartStoreSpan(ctx, "neo4j", "store_model")
	defer span.End()

	stmts, err := statements(m)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range stmts {
			if _, err := tx.Run(ctx, st.query, st.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("store model %s: %w", m.Name, err)
	}
	return nil
}

func (r *Repository) LoadModel(ctx context.Context, name string) (*arch.Model, error) {
	ctx, span := observability.StartStoreSpan(ctx, "neo4j", "load_model")
	defer span.End()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (m:ArchModel {name: $name}) RETURN m.document AS document",
			map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return nil, fmt.Errorf("%w: %s", archstore.ErrNotFound, name)
		}
		doc, _ := records.Record().Get("document")
		s, ok := doc.(string)
		if !ok {
			return nil, fmt.Errorf("model %s has no stored document", name)
		}
		return s, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return arch.Decode(bytes.NewBufferString(result.(string)))
}

func (r *Repository) QueryProviders(ctx context.Context, model, iface string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (c:Component {model: $model})-[:PROVIDES]->(:Interface {model: $model, name: $name}) "+
				"RETURN c.name AS name ORDER BY name",
			map[string]any{"model": model, "name": iface})
		if err != nil {
			return nil, err
		}
		var names []string
		for records.Next(ctx) {
			n, _ := records.Record().Get("name")
			names = append(names, n.(string))
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ archstore.Repository = (*Repository)(nil)
