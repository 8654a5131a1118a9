package services

import (
	"medidispatch/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func parseObjectID(id, resource string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.NewBadRequestError("invalid " + resource + " id")
	}
	return oid, nil
}
