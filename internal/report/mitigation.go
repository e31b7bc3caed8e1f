package report

import "strings"

// Mitigation is the remediation wording shown under an expanded deficit row,
// in English and Chinese.
type Mitigation struct {
	EN string `json:"en"`
	ZH string `json:"zh"`
}

// MitigationFor maps an asset type to its remediation wording by substring
// match. Stateless lookup; unmatched types fall back to the generic
// inspect-and-consult message.
func MitigationFor(assetType string) Mitigation {
	switch {
	case strings.Contains(assetType, "Wall"),
		strings.Contains(assetType, "Floor"),
		strings.Contains(assetType, "Slab"):
		return Mitigation{
			EN: "Apply fire-rated intumescent coating or install fire-stop mineral wool to meet required REI.",
			ZH: "涂刷防火涂料或安装防火封堵矿棉以满足所需 REI 等级",
		}
	case strings.Contains(assetType, "Door"):
		return Mitigation{
			EN: "Clear all physical obstructions immediately and inspect self-closing mechanisms.",
			ZH: "立即清理障碍物并检查闭门器状态",
		}
	default:
		return Mitigation{
			EN: "Inspect the element on site and consult a fire engineer for remediation.",
			ZH: "现场检查该构件并咨询消防工程师确定整改方案",
		}
	}
}
