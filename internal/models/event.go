package models

import "time"

// Event is an audit record persisted by the events emitter.
type Event struct {
	ID        string    `json:"id" bson:"_id"`
	TimeStamp time.Time `json:"timestamp" bson:"timestamp"`

	Action string `bson:"action" json:"action"`

	ActorID   string `bson:"actorID" json:"actorID"`
	ActorRole string `bson:"actorRole" json:"actorRole"`

	TargetID   string `bson:"targetID" json:"targetID"`
	TargetType string `bson:"targetType" json:"targetType"`

	Props map[string]any `bson:"props" json:"props"`

	Deployment string `bson:"deployment,omitempty" json:"deployment,omitempty"`
}
