package model

// FieldIndex is the absolute offset of a 32-bit word in an object's dense
// field table. The ordering below is part of the wire contract (§9: "enum
// values as wire constants") and must not be renumbered once shipped.
type FieldIndex uint16

// Object fields, present on every BaseObject regardless of type.
const (
	FieldGUID     FieldIndex = 0 // low 32 bits; the update engine dirties FieldGUID+1 with it
	fieldGUIDHigh FieldIndex = 1 // high 32 bits, written by NewBaseObject
	FieldType     FieldIndex = 2
	FieldEntry    FieldIndex = 3
	FieldScaleX   FieldIndex = 4

	objectFieldEnd FieldIndex = 5
)

// Unit fields, present on Unit and Player.
const (
	FieldHealth          FieldIndex = objectFieldEnd + iota // 5
	FieldMaxHealth                                           // 6
	FieldLevel                                               // 7
	FieldFactionTemplate                                      // 8
	FieldUnitFlags                                            // 9
	FieldBytes0                                               // 10: race | class<<8 | gender<<16
	FieldBaseAttackTime                                       // 11
	FieldBoundingRadius                                       // 12
	FieldDisplayID                                            // 13
	FieldNativeDisplayID                                      // 14
	FieldSpeedWalk                                            // 15
	FieldSpeedRun                                             // 16
	FieldSpeedSwim                                            // 17
	FieldTargetGUID                                           // 18 (+19 high, via SetGUIDField)
	unitFieldEnd         FieldIndex = FieldTargetGUID + 2      // 20
)

// Player fields, present only on Player.
const (
	FieldPlayerFlags FieldIndex = unitFieldEnd + iota // 20
	FieldXP                                            // 21
	FieldNextLevelXP                                   // 22
	FieldSkillPoints                                   // 23

	playerFieldEnd FieldIndex = FieldSkillPoints + 1
)

// PlayerFieldCount is the dense size of a Player's field table.
const PlayerFieldCount = int(playerFieldEnd)

// UnitFieldCount is the dense size of a Unit's field table.
const UnitFieldCount = int(unitFieldEnd)

// ObjectFieldCount is the dense size of a plain BaseObject's field table.
const ObjectFieldCount = int(objectFieldEnd)
