package entities

// PartID identifies a repairable part across all of its cycles
type PartID int

// Quantity represents an integer count of parts
type Quantity int64
