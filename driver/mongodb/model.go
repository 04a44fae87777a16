// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"axonflow/connmgr/driver"
	"axonflow/connmgr/schema"
)

// codeNamespaceExists is the server error for creating an existing collection
const codeNamespaceExists = 48

// bsonTypes maps schema field types to $jsonSchema bsonType names
var bsonTypes = map[string]string{
	schema.TypeString:   "string",
	schema.TypeInt:      "int",
	schema.TypeLong:     "long",
	schema.TypeDouble:   "double",
	schema.TypeBool:     "bool",
	schema.TypeDate:     "date",
	schema.TypeObjectID: "objectId",
	schema.TypeObject:   "object",
	schema.TypeArray:    "array",
}

// Model is a compiled schema bound to a collection
type Model struct {
	id         string
	name       string
	schema     *schema.Schema
	conn       *Connection
	collection *mongo.Collection
}

func (m *Model) ID() string                    { return m.id }
func (m *Model) Name() string                  { return m.name }
func (m *Model) Schema() *schema.Schema        { return m.schema }
func (m *Model) Connection() driver.Connection { return m.conn }

// Collection exposes the underlying collection
func (m *Model) Collection() *mongo.Collection {
	return m.collection
}

// Sync creates the collection with the schema's validator (or updates the
// validator if it already exists) and builds the declared indexes.
func (m *Model) Sync(ctx context.Context) error {
	validator := Validator(m.schema)
	collName := m.collection.Name()

	err := m.conn.database.CreateCollection(ctx, collName, options.CreateCollection().SetValidator(validator))
	if err != nil && !isNamespaceExists(err) {
		return driver.NewError(DriverName, "Sync", fmt.Sprintf("failed to create collection %s", collName), err)
	}
	if err != nil {
		cmd := bson.D{{Key: "collMod", Value: collName}, {Key: "validator", Value: validator}}
		if err := m.conn.database.RunCommand(ctx, cmd).Err(); err != nil {
			return driver.NewError(DriverName, "Sync", fmt.Sprintf("failed to update validator on %s", collName), err)
		}
	}

	indexes := IndexModels(m.schema)
	if len(indexes) == 0 {
		return nil
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return driver.NewError(DriverName, "Sync", fmt.Sprintf("failed to create indexes on %s", collName), err)
	}

	m.conn.logger.Printf("Synced model %s (collection=%s, indexes=%d)", m.name, collName, len(indexes))
	return nil
}

// InsertOne inserts doc and returns the inserted id
func (m *Model) InsertOne(ctx context.Context, doc map[string]interface{}) (interface{}, error) {
	result, err := m.collection.InsertOne(ctx, convertToBSONValue(doc))
	if err != nil {
		return nil, driver.NewError(DriverName, "InsertOne", "insert failed", err)
	}
	return convertFromBSON(result.InsertedID), nil
}

// Find returns documents matching filter; limit <= 0 means no limit
func (m *Model) Find(ctx context.Context, filter map[string]interface{}, limit int64) ([]map[string]interface{}, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.collection.Find(ctx, toFilter(filter), opts)
	if err != nil {
		return nil, driver.NewError(DriverName, "Find", "find failed", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results, err := decodeCursor(ctx, cursor)
	if err != nil {
		return nil, driver.NewError(DriverName, "Find", "failed to decode results", err)
	}
	return results, nil
}

// Count returns the number of documents matching filter
func (m *Model) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, toFilter(filter))
	if err != nil {
		return 0, driver.NewError(DriverName, "Count", "count failed", err)
	}
	return n, nil
}

// Validator builds the $jsonSchema validator document for s
func Validator(s *schema.Schema) bson.M {
	properties := bson.M{}
	required := bson.A{}

	for _, f := range s.Fields {
		prop := bson.M{}
		if bt, ok := bsonTypes[f.Type]; ok {
			prop["bsonType"] = bt
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	jsonSchema := bson.M{
		"bsonType":   "object",
		"properties": properties,
	}
	if len(required) > 0 {
		jsonSchema["required"] = required
	}
	if s.Strict {
		if _, declared := properties["_id"]; !declared {
			properties["_id"] = bson.M{}
		}
		jsonSchema["additionalProperties"] = false
	}

	return bson.M{"$jsonSchema": jsonSchema}
}

// IndexModels returns the indexes implied by unique fields and declared indexes
func IndexModels(s *schema.Schema) []mongo.IndexModel {
	var models []mongo.IndexModel

	for _, f := range s.Fields {
		if !f.Unique {
			continue
		}
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: f.Name, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(f.Name + "_unique"),
		})
	}

	for _, idx := range s.Indexes {
		keys := bson.D{}
		for _, k := range idx.Keys {
			order := 1
			if strings.HasPrefix(k, "-") {
				order = -1
				k = strings.TrimPrefix(k, "-")
			}
			keys = append(keys, bson.E{Key: k, Value: order})
		}

		opts := options.Index()
		if idx.Unique {
			opts.SetUnique(true)
		}
		if idx.Name != "" {
			opts.SetName(idx.Name)
		}
		models = append(models, mongo.IndexModel{Keys: keys, Options: opts})
	}

	return models
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists
}

func toFilter(filter map[string]interface{}) bson.M {
	if filter == nil {
		return bson.M{}
	}
	converted, ok := convertToBSONValue(filter).(bson.M)
	if !ok {
		return bson.M{}
	}
	return converted
}

// convertToBSONValue converts JSON-decoded values to BSON, honouring the
// extended JSON {"$oid": ...} and {"$date": ...} forms
func convertToBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if oid, ok := val["$oid"].(string); ok {
			if objectID, err := primitive.ObjectIDFromHex(oid); err == nil {
				return objectID
			}
		}
		if date, ok := val["$date"].(string); ok {
			if t, err := time.Parse(time.RFC3339, date); err == nil {
				return t
			}
		}
		result := bson.M{}
		for k, v := range val {
			result[k] = convertToBSONValue(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = convertToBSONValue(v)
		}
		return result
	default:
		return val
	}
}

// decodeCursor decodes all documents from a cursor
func decodeCursor(ctx context.Context, cursor *mongo.Cursor) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, bsonToMap(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func bsonToMap(doc bson.M) map[string]interface{} {
	result := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		result[k] = convertFromBSON(v)
	}
	return result
}

// convertFromBSON converts BSON types to JSON-serializable Go types
func convertFromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time()
	case primitive.Binary:
		return val.Data
	case bson.M:
		return bsonToMap(val)
	case bson.A:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = convertFromBSON(item)
		}
		return result
	case bson.D:
		result := make(map[string]interface{}, len(val))
		for _, elem := range val {
			result[elem.Key] = convertFromBSON(elem.Value)
		}
		return result
	default:
		return val
	}
}
