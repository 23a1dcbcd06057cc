// Package configschema defines the two configuration documents (§6
// "Configuration") and generates JSON Schema for each, so map/config
// authoring tools can validate documents before the simulation loads
// them. Grounded directly on the teacher's effects/catalog schema
// generation (internal/effects/catalog/schema_generate.go,
// cmd/schema/main.go): a jsonschema.Reflector with
// RequiredFromJSONSchemaTags and DoNotReference set, reflecting a Go
// struct into a *jsonschema.Schema — adapted here from the effect
// catalog's entry document to InitialConfig/RuntimeConfig.
package configschema

// InitialConfig is loaded once at startup and is determinism-affecting:
// changing any field changes the simulation's output for the same input
// stream, so it must never be hot-reloaded.
type InitialConfig struct {
	TickRate   float64 `json:"tickRate" jsonschema:"required,minimum=1"`
	UnitSpeed  float64 `json:"unitSpeed" jsonschema:"required"`
	MapWidth   float64 `json:"mapWidth" jsonschema:"required"`
	MapHeight  float64 `json:"mapHeight" jsonschema:"required"`
	UnitRadius float64 `json:"unitRadius" jsonschema:"required"`

	RepulsionDecay      float64 `json:"repulsionDecay" jsonschema:"required"`
	Friction            float64 `json:"friction" jsonschema:"required"`
	MinVelocity         float64 `json:"minVelocity"`
	MaxSpeed            float64 `json:"maxSpeed" jsonschema:"required"`
	MaxForce            float64 `json:"maxForce" jsonschema:"required"`
	ArrivalThreshold    float64 `json:"arrivalThreshold" jsonschema:"required"`
	CheckDistMultiplier float64 `json:"checkDistMultiplier"`

	NeighborRadius         float64 `json:"neighborRadius"`
	SeparationRadius       float64 `json:"separationRadius"`
	BoidsMaxNeighbors      int     `json:"boidsMaxNeighbors"`
	SeparationWeight       float64 `json:"separationWeight"`
	AlignmentWeight        float64 `json:"alignmentWeight"`
	CohesionWeight         float64 `json:"cohesionWeight"`
	SeparationForceCeiling float64 `json:"separationForceCeiling"`

	PathfindingBuildBatchSize int `json:"pathfindingBuildBatchSize" jsonschema:"minimum=1"`

	SpatialHashEntityRadii            []float32 `json:"spatialHashEntityRadii" jsonschema:"required,minItems=1"`
	SpatialHashRadiusToCellRatio      float32   `json:"spatialHashRadiusToCellRatio" jsonschema:"required"`
	SpatialHashMaxEntityCount         int       `json:"spatialHashMaxEntityCount" jsonschema:"required,minimum=1"`
	SpatialHashArenaOvercapacityRatio float32   `json:"spatialHashArenaOvercapacityRatio" jsonschema:"required"`
}

// RuntimeConfig is hot-reloadable and non-determinism-affecting: it only
// touches presentation and operator-facing controls, never the tick
// output.
type RuntimeConfig struct {
	Controls struct {
		InvertCamera bool `json:"invertCamera"`
		EdgePanSpeed float64 `json:"edgePanSpeed"`
	} `json:"controls"`
	Camera struct {
		Zoom float64 `json:"zoom"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	} `json:"camera"`
	Debug struct {
		ShowGrid    bool `json:"showGrid"`
		ShowRegions bool `json:"showRegions"`
		ShowPortals bool `json:"showPortals"`
	} `json:"debug"`
}
