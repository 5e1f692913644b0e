package semantic

import (
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/glucolog/mealmatch/engine/domain"
)

func str(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func num(f float64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}}
}

// encodeFood flattens a normalized food into a Qdrant payload. Absent macros
// are omitted rather than written as zero.
func encodeFood(f domain.NormalizedFood) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		"provider":     str(string(f.Provider)),
		"external_id":  str(f.ExternalID),
		"display_name": str(f.DisplayName),
	}
	if f.Brand != "" {
		payload["brand"] = str(f.Brand)
	}
	if f.ServingSize > 0 {
		payload["serving_size"] = num(f.ServingSize)
	}
	if f.ServingUnit != "" {
		payload["serving_unit"] = str(f.ServingUnit)
	}
	for key, v := range macroFields(&f.Macros) {
		if *v != nil {
			payload[key] = num(**v)
		}
	}
	return payload
}

// decodeFood rebuilds a normalized food from a payload. Points missing their
// identity fields are not usable as candidates.
func decodeFood(payload map[string]*pb.Value) (domain.NormalizedFood, bool) {
	var f domain.NormalizedFood
	macros := macroFields(&f.Macros)

	for k, v := range payload {
		switch k {
		case "provider":
			f.Provider = domain.Provider(v.GetStringValue())
		case "external_id":
			f.ExternalID = v.GetStringValue()
		case "display_name":
			f.DisplayName = v.GetStringValue()
		case "brand":
			f.Brand = v.GetStringValue()
		case "serving_size":
			f.ServingSize = v.GetDoubleValue()
		case "serving_unit":
			f.ServingUnit = v.GetStringValue()
		default:
			if slot, ok := macros[k]; ok {
				*slot = domain.Float(v.GetDoubleValue())
			}
		}
	}

	if f.Provider == "" || f.ExternalID == "" || f.DisplayName == "" {
		return domain.NormalizedFood{}, false
	}
	return f, true
}

func macroFields(m *domain.Nutrients) map[string]**float64 {
	return map[string]**float64{
		"calories":  &m.Calories,
		"carbs":     &m.Carbs,
		"protein":   &m.Protein,
		"fat":       &m.Fat,
		"fibre":     &m.Fibre,
		"sugar":     &m.Sugar,
		"sodium_mg": &m.SodiumMg,
	}
}
