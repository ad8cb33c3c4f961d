package compositor

import (
	"strings"

	"github.com/youzoom64/RTMP-streamer/pkg/expression"
)

// Candidate is one resolution attempt: a logical path, or a keyword set
// when Path is empty.
type Candidate struct {
	Path     string
	Keywords []string
}

// P returns a path candidate.
func P(path string) Candidate { return Candidate{Path: path} }

// K returns a keyword candidate.
func K(keywords ...string) Candidate { return Candidate{Keywords: keywords} }

func (c Candidate) String() string {
	if c.Path != "" {
		return c.Path
	}
	return "{" + strings.Join(c.Keywords, ",") + "}"
}

var baseChains = map[Tier][]Candidate{
	TierBody:     {P("服装2/素体"), K("素体")},
	TierEdamame:  {P("枝豆/枝豆通常"), K("枝豆", "通常"), K("枝豆")},
	TierOutfit:   {P("服装1/いつもの服"), P("服装1/制服"), K("服装1", "服"), K("服装1")},
	TierLeftArm:  {P("_服装1/!左腕/*基本*"), K("服装1", "左腕", "基本"), K("左腕", "基本")},
	TierRightArm: {P("_服装1/!右腕/*基本*"), K("服装1", "右腕", "基本"), K("右腕", "基本")},
	TierEyebrows: {P("眉/普通眉"), P("眉/怒り眉"), K("眉", "普通"), K("眉")},
}

var mouthMapping = map[string][]string{
	"むふ":  {"!口/_むふ_"},
	"ほあー": {"!口/_ほあー_", "!口/_ほあ_", "!口/_ほー_"},
	"ほあ":  {"!口/_ほあ_", "!口/_ほあー_"},
}

// Chain returns the candidate chain for tier t showing pose. Base tiers
// ignore pose. The eye-white tier only exists for the open-eyes pose; for
// other poses Chain returns nil.
func Chain(t Tier, pose string) []Candidate {
	switch t {
	case TierEyeWhite:
		if pose != expression.EyesOpen {
			return nil
		}
		return []Candidate{P("目/目セット/普通白目"), K("目", "普通白目"), K("白目")}

	case TierEyes:
		if pose == expression.EyesOpen {
			return []Candidate{
				P("目/目セット/黒目/普通目"),
				P("目/目セット/黒目/普通目2"),
				P("目/目セット/黒目/普通目3"),
				P("目/目セット/黒目/カメラ目線"),
				K("目", "黒目", "普通目"),
				K("黒目", "普通目"),
				K("黒目"),
			}
		}
		return []Candidate{P("目/" + pose), K("目", pose)}

	case TierMouth:
		var c []Candidate
		for _, p := range mouthMapping[pose] {
			c = append(c, P(p))
		}
		return append(c,
			P("!口/_"+pose+"_"),
			P("!口/"+pose),
			P("口/"+pose),
			K("口", pose),
		)
	}
	return baseChains[t]
}
