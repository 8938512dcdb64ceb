package calbookv1

import (
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Timestamp wraps google.protobuf.Timestamp so that it travels in the JSON
// codec as an RFC 3339 string, the same mapping protojson uses.
type Timestamp struct {
	pb *timestamppb.Timestamp
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{pb: timestamppb.New(t)}
}

// AsTime returns the UTC time. A nil Timestamp yields the zero time.
func (t *Timestamp) AsTime() time.Time {
	if t == nil || t.pb == nil {
		return time.Time{}
	}
	return t.pb.AsTime()
}

func (t *Timestamp) Proto() *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return t.pb
}

func (t *Timestamp) MarshalJSON() ([]byte, error) {
	if t.Proto() == nil {
		return []byte("null"), nil
	}
	return protojson.Marshal(t.pb)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	pb := new(timestamppb.Timestamp)
	if err := protojson.Unmarshal(data, pb); err != nil {
		return err
	}
	t.pb = pb
	return nil
}
