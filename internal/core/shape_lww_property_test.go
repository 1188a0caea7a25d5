package core

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// shapeOp is one randomly generated edit against a fixed small id space.
type shapeOp struct {
	Kind int // 0 = create, 1 = update, 2 = delete, 3 = clear
	ID   int // index into opIDs
	Val  float64
}

var opIDs = []string{"a", "b", "c", "d"}

// modelShape mirrors the fields a random op can touch.
type modelShape struct {
	id string
	x  float64
}

// For any sequence of create/update/delete/clear ops on one room, the
// shape collection holds exactly one entry per live id, in creation
// order, with field values equal to the last accepted write.
func TestShapeCollectionLastWriteWinsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	genOp := gen.Struct(reflect.TypeOf(shapeOp{}), map[string]gopter.Gen{
		"Kind": gen.IntRange(0, 3),
		"ID":   gen.IntRange(0, len(opIDs)-1),
		"Val":  gen.Float64Range(-1e6, 1e6),
	})

	properties.Property("one live entry per id, creation order, last write wins", prop.ForAll(
		func(ops []shapeOp) bool {
			env := newTestEnv(true)
			env.connect("S")
			env.handler.JoinRoom("S", JoinRoomPayload{RoomID: "r"})

			var model []modelShape
			find := func(id string) int {
				for i := range model {
					if model[i].id == id {
						return i
					}
				}
				return -1
			}

			for _, op := range ops {
				id := opIDs[op.ID]
				switch op.Kind {
				case 0:
					out := env.handler.ShapeCreated("S", ShapeCreatePayload{ID: id, Kind: "rect", X: op.Val})
					if find(id) == -1 {
						if !out.Accepted {
							return false
						}
						model = append(model, modelShape{id: id, x: op.Val})
					} else if out.Accepted {
						return false // duplicate create must be rejected
					}
				case 1:
					v := op.Val
					out := env.handler.ShapeUpdated("S", ShapeUpdatePayload{ID: id, X: &v})
					if i := find(id); i >= 0 {
						if !out.Accepted {
							return false
						}
						model[i].x = v
					} else if out.Accepted {
						return false // update of a dead id must be dropped
					}
				case 2:
					if !env.handler.ShapeDeleted("S", ShapeDeletePayload{ID: id}).Accepted {
						return false
					}
					if i := find(id); i >= 0 {
						model = append(model[:i], model[i+1:]...)
					}
				case 3:
					if !env.handler.CanvasCleared("S").Accepted {
						return false
					}
					model = nil
				}
			}

			rm, ok := env.rooms.Get("r")
			if !ok {
				return false
			}
			shapes := rm.Shapes()
			if len(shapes) != len(model) {
				return false
			}
			for i, s := range shapes {
				if s.ID != model[i].id || s.X != model[i].x {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genOp),
	))

	properties.TestingRun(t)
}
