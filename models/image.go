package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ImageRecord is a camera or face-detection capture. Either Data holds the
// image inline or S3URL points at the object in S3.
type ImageRecord struct {
	ID    bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Data  []byte        `json:"-" bson:"data,omitempty"`
	S3URL string        `json:"s3_url,omitempty" bson:"s3_url,omitempty"`
	Time  time.Time     `json:"time" bson:"time,omitempty"`
	Name  string        `json:"name,omitempty" bson:"name,omitempty"`
}

// HasImage reports whether the record carries anything viewable.
func (r *ImageRecord) HasImage() bool {
	return r != nil && (len(r.Data) > 0 || r.S3URL != "")
}

type ImageSummary struct {
	Name string    `json:"name" bson:"name"`
	Time time.Time `json:"time" bson:"time"`
}

// FaceImageResponse is the body of /fetch_face_image/:index.
type FaceImageResponse struct {
	ImageID   string `json:"imageId"`
	BsonTime  string `json:"bsonTime"`
	ImageData string `json:"imageData,omitempty"`
}
