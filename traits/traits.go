// Package traits defines the closed set of creature types and the fixed
// diet/predation tables that gate which types may eat which.
package traits

// CreatureType tags a creature with its ecological role. The set is closed:
// behavior strategies, prey eligibility, and population bounds are all
// indexed by this tag, and switches over it are expected to be exhaustive.
type CreatureType uint8

const (
	Grazer CreatureType = iota
	Browser
	Frugivore
	SmallPredator
	ApexPredator
	Omnivore
	Scavenger
	Aquatic
	Flying
	Parasite
	Cleaner

	NumTypes
)

var typeNames = [NumTypes]string{
	"grazer", "browser", "frugivore", "small_predator", "apex_predator",
	"omnivore", "scavenger", "aquatic", "flying", "parasite", "cleaner",
}

// String returns the canonical config/telemetry name for the type.
func (t CreatureType) String() string {
	if t >= NumTypes {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType returns the type for a canonical name, or (NumTypes, false).
func ParseType(name string) (CreatureType, bool) {
	for i, n := range typeNames {
		if n == name {
			return CreatureType(i), true
		}
	}
	return NumTypes, false
}

// Mask is a bitset over creature types, used by spatial type filters.
type Mask uint16

// MaskOf builds a mask from a list of types.
func MaskOf(types ...CreatureType) Mask {
	var m Mask
	for _, t := range types {
		m |= 1 << t
	}
	return m
}

// Has reports whether the mask contains the type.
func (m Mask) Has(t CreatureType) bool {
	return m&(1<<t) != 0
}

// AllMask matches every creature type.
const AllMask = Mask(1<<NumTypes - 1)

// preyTable lists which types each predator type may hunt and kill.
// Parasites and cleaners are not in this table: parasites drain hosts
// without killing, cleaners only groom (see HostTable, CleanTable).
var preyTable = [NumTypes][]CreatureType{
	SmallPredator: {Grazer, Browser, Frugivore},
	ApexPredator:  {Grazer, Browser, SmallPredator, Omnivore, Aquatic},
	Omnivore:      {Frugivore},
	Flying:        {Aquatic},
}

// PreyOf returns the fixed prey-eligibility list for a predator type.
// Empty for non-predators.
func PreyOf(t CreatureType) []CreatureType {
	if t >= NumTypes {
		return nil
	}
	return preyTable[t]
}

// PreyMask returns the prey list as a mask for spatial queries.
func PreyMask(t CreatureType) Mask {
	return MaskOf(PreyOf(t)...)
}

// HostTable lists which types a parasite may attach to and drain.
var HostTable = []CreatureType{Grazer, Browser, ApexPredator, Omnivore}

// CleanTable lists which types a cleaner services (removing parasites).
var CleanTable = []CreatureType{Parasite}

// threatMask is the inverse of preyTable: for each type, which predator
// types it should flee from. Built once at init.
var threatMask [NumTypes]Mask

func init() {
	for pred := CreatureType(0); pred < NumTypes; pred++ {
		for _, prey := range preyTable[pred] {
			threatMask[prey] |= 1 << pred
		}
	}
	// Parasites count as threats to their hosts for flee purposes.
	for _, host := range HostTable {
		threatMask[host] |= 1 << Parasite
	}
}

// ThreatMask returns the set of types that prey on t.
func ThreatMask(t CreatureType) Mask {
	if t >= NumTypes {
		return 0
	}
	return threatMask[t]
}

// IsPredator reports whether the type hunts live prey.
func IsPredator(t CreatureType) bool {
	return len(preyTable[t]) > 0
}

// EatsFood reports whether the type grazes on the external food supply.
func EatsFood(t CreatureType) bool {
	switch t {
	case Grazer, Browser, Frugivore, Omnivore, Aquatic, Flying:
		return true
	default:
		return false
	}
}

// EatsCarrion reports whether the type feeds on carcasses.
func EatsCarrion(t CreatureType) bool {
	return t == Scavenger || t == Cleaner
}

// IsAirborne reports whether the type moves in the air column.
func IsAirborne(t CreatureType) bool {
	return t == Flying
}

// IsAquatic reports whether the type moves in the water column.
func IsAquatic(t CreatureType) bool {
	return t == Aquatic
}

// TrophicLevel returns the food-chain position: 1 for primary consumers,
// 2 for mesopredators and detritivores, 3 for apex predators.
func TrophicLevel(t CreatureType) int {
	switch t {
	case ApexPredator:
		return 3
	case SmallPredator, Omnivore, Flying, Scavenger, Parasite:
		return 2
	default:
		return 1
	}
}

// TypeColor returns a presentation RGB for the type. Read-only hint for
// dashboards; the core never depends on it.
func TypeColor(t CreatureType) (r, g, b uint8) {
	switch t {
	case Grazer:
		return 80, 150, 200
	case Browser:
		return 90, 170, 160
	case Frugivore:
		return 150, 120, 220
	case SmallPredator:
		return 220, 120, 80
	case ApexPredator:
		return 200, 60, 60
	case Omnivore:
		return 180, 100, 180
	case Scavenger:
		return 120, 100, 80
	case Aquatic:
		return 70, 130, 230
	case Flying:
		return 230, 210, 90
	case Parasite:
		return 160, 160, 60
	case Cleaner:
		return 110, 220, 160
	default:
		return 150, 150, 150
	}
}
