package normalize

import (
	"strings"

	"freightmatch/internal"
)

var equipmentKeywords = []struct {
	keyword   string
	equipment internal.EquipmentType
}{
	{"double drop", internal.EquipLowboy},
	{"step deck", internal.EquipStepDeck},
	{"stepdeck", internal.EquipStepDeck},
	{"drop deck", internal.EquipStepDeck},
	{"lowboy", internal.EquipLowboy},
	{"low boy", internal.EquipLowboy},
	{"rgn", internal.EquipLowboy},
	{"flatbed", internal.EquipFlatbed},
	{"flat bed", internal.EquipFlatbed},
	{"reefer", internal.EquipReefer},
	{"refrigerated", internal.EquipReefer},
	{"dry van", internal.EquipDryVan},
	{"chassis", internal.EquipChassis},
	{"conestoga", internal.EquipFlatbed},
	{"van", internal.EquipDryVan},
}

// DetectEquipmentType infers equipment from the explicit field first, then
// from the cargo description.
func DetectEquipmentType(equipment, cargoDescription string) internal.EquipmentType {
	for _, text := range []string{equipment, cargoDescription} {
		lowered := strings.ToLower(text)
		if strings.TrimSpace(lowered) == "" {
			continue
		}
		for _, entry := range equipmentKeywords {
			if strings.Contains(lowered, entry.keyword) {
				return entry.equipment
			}
		}
	}
	return internal.EquipUnknown
}

var containerKeywords = []struct {
	keyword   string
	container internal.ContainerType
}{
	{"40hc", internal.ContainerHighCube},
	{"40 hc", internal.ContainerHighCube},
	{"high cube", internal.ContainerHighCube},
	{"open top", internal.ContainerOpenTop},
	{"open-top", internal.ContainerOpenTop},
	{"flat rack", internal.ContainerFlatRack},
	{"flatrack", internal.ContainerFlatRack},
	{"40ft", internal.ContainerStandard40},
	{"40 ft", internal.ContainerStandard40},
	{"40'", internal.ContainerStandard40},
	{"20ft", internal.ContainerStandard20},
	{"20 ft", internal.ContainerStandard20},
	{"20'", internal.ContainerStandard20},
}

var oogTokens = []string{"oog", "out of gauge", "out-of-gauge", "open top", "flat rack"}

// DetectContainerType infers a container type and whether the text carries
// out-of-gauge vocabulary.
func DetectContainerType(equipment, cargoDescription string) (internal.ContainerType, bool) {
	container := internal.ContainerUnknown
	oog := false
	for _, text := range []string{equipment, cargoDescription} {
		lowered := strings.ToLower(text)
		if strings.TrimSpace(lowered) == "" {
			continue
		}
		if container == internal.ContainerUnknown {
			for _, entry := range containerKeywords {
				if strings.Contains(lowered, entry.keyword) {
					container = entry.container
					break
				}
			}
		}
		for _, token := range oogTokens {
			if strings.Contains(lowered, token) {
				oog = true
				break
			}
		}
	}
	return container, oog
}
