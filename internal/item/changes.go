package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/naughtygopher/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation is the change data capture operation marker, the same values Debezium uses
type Operation string

const (
	OpCreate Operation = "c"
	OpUpdate Operation = "u"
	OpDelete Operation = "d"
)

var ErrInvalidChange = errors.Validation("invalid item change event")

// Change is a single create, update or delete observed on the items collection.
// Name is empty for deletes.
type Change struct {
	Op     Operation
	ItemID string
	Name   string
	At     time.Time
}

// ChangeSource identifies where a change was captured, it is copied into the event's source block
type ChangeSource struct {
	Name       string `json:"name"`
	DB         string `json:"db"`
	Collection string `json:"collection"`
}

type changeKey struct {
	ID json.RawMessage `json:"id"`
}

type changeSourceBlock struct {
	ChangeSource
	TsMs int64 `json:"ts_ms"`
}

type changeValue struct {
	After  json.RawMessage    `json:"after"`
	Op     Operation          `json:"op"`
	TsMs   int64              `json:"ts_ms"`
	Source *changeSourceBlock `json:"source,omitempty"`
}

// envelope is how Kafka Connect's JSON converter wraps records when schemas are enabled
type envelope struct {
	Payload json.RawMessage `json:"payload"`
}

func (op Operation) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// Encode renders the change as a Kafka record key & value, in the same layout as the Debezium
// MongoDB source connector (schemaless JSON converter). i.e. the ID in the key and the document in
// 'after' are both relaxed extended JSON strings.
func (ch *Change) Encode(src ChangeSource) (key []byte, value []byte, err error) { //nolint:nonamedreturns // readability
	if !ch.Op.Valid() {
		return nil, nil, errors.Wrapf(ErrInvalidChange, "operation '%s'", ch.Op)
	}

	oid, err := primitive.ObjectIDFromHex(ch.ItemID)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidChange, "item ID '%s'", ch.ItemID)
	}

	extIDStr, err := json.Marshal(fmt.Sprintf(`{"$oid": "%s"}`, oid.Hex()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed marshaling item ID")
	}

	key, err = json.Marshal(changeKey{ID: extIDStr})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed marshaling change key")
	}

	after := json.RawMessage("null")
	if ch.Op != OpDelete {
		doc, derr := bson.MarshalExtJSON(mongoItem{ID: oid, Name: ch.Name}, false, false)
		if derr != nil {
			return nil, nil, errors.Wrap(derr, "failed marshaling item document")
		}
		after, err = json.Marshal(string(doc))
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed marshaling item document")
		}
	}

	tsMs := ch.At.UnixMilli()
	value, err = json.Marshal(changeValue{
		After: after,
		Op:    ch.Op,
		TsMs:  tsMs,
		Source: &changeSourceBlock{
			ChangeSource: src,
			TsMs:         tsMs,
		},
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed marshaling change value")
	}

	return key, value, nil
}

// ParseChange decodes a change event record. It accepts records produced by the change relay
// as well as Debezium's, with or without the schema/payload envelope. 'after' may either be
// an extended JSON string or a plain JSON object.
func ParseChange(key, value []byte) (*Change, error) {
	val := new(changeValue)
	err := json.Unmarshal(unwrapPayload(value), val)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidChange, err.Error())
	}

	if !val.Op.Valid() {
		return nil, errors.Wrapf(ErrInvalidChange, "operation '%s'", val.Op)
	}

	change := &Change{
		Op: val.Op,
		At: time.UnixMilli(val.TsMs),
	}

	if doc := afterDocument(val.After); doc != nil {
		change.ItemID = doc.ID
		change.Name = doc.Name
	}

	if len(key) > 0 {
		ck := new(changeKey)
		err = json.Unmarshal(unwrapPayload(key), ck)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidChange, err.Error())
		}
		keyID, kerr := parseID(ck.ID)
		if kerr != nil {
			return nil, kerr
		}
		if keyID != "" {
			change.ItemID = keyID
		}
	}

	if change.ItemID == "" {
		return nil, errors.Wrap(ErrInvalidChange, "no item ID in key or document")
	}

	return change, nil
}

func unwrapPayload(raw []byte) []byte {
	env := envelope{}
	err := json.Unmarshal(raw, &env)
	if err != nil || len(env.Payload) == 0 || bytes.Equal(env.Payload, []byte("null")) {
		return raw
	}
	return env.Payload
}

type afterDoc struct {
	ID   string
	Name string
}

func afterDocument(raw json.RawMessage) *afterDoc {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	// Debezium puts the document in as a string of extended JSON
	if raw[0] == '"' {
		str := ""
		if json.Unmarshal(raw, &str) != nil {
			return nil
		}
		raw = []byte(str)
	}

	doc := bson.M{}
	if bson.UnmarshalExtJSON(raw, false, &doc) != nil {
		return nil
	}

	out := &afterDoc{}
	out.ID = idString(doc["_id"])
	if out.ID == "" {
		out.ID = idString(doc["id"])
	}
	out.Name, _ = doc["name"].(string)

	return out
}

func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		str := ""
		err := json.Unmarshal(raw, &str)
		if err != nil {
			return "", errors.Wrap(ErrInvalidChange, err.Error())
		}
		// the ID might itself be an extended JSON document, e.g. {"$oid": "..."}
		if len(str) == 0 || str[0] != '{' {
			return str, nil
		}
		raw = []byte(str)
	}

	wrapped := bson.M{}
	err := bson.UnmarshalExtJSON(append(append([]byte(`{"id":`), raw...), '}'), false, &wrapped)
	if err != nil {
		return "", errors.Wrap(ErrInvalidChange, err.Error())
	}

	return idString(wrapped["id"]), nil
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}
