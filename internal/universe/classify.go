package universe

import "strings"

// sectorBucket is one classification rule: the first bucket whose keyword
// matches wins.
type sectorBucket struct {
	label    string
	keywords []string
}

// sectorBuckets apply in strict priority order: asset class over strategy
// over industry over theme over broad index, with an explicit terminal
// "unclassified" bucket. The keyword sets follow Korean ETF naming
// conventions (note the trailing spaces on "금 " / "은 " to avoid matching
// 금융/은행).
var sectorBuckets = []sectorBucket{
	{"[자산] 채권/현금", []string{
		"채권", "국채", "통안", "회사채", "금리", "CD", "KOFR", "파킹",
		"머니마켓", "단기자금", "CASH", "BOND", "통화", "달러", "USD",
	}},
	{"[자산] 리츠/인프라", []string{"리츠", "REITS", "부동산", "인프라"}},
	{"[자산] 원자재", []string{"금 ", "은 ", "구리", "원자재", "COMMODITY", "금현물", "은현물"}},
	{"[전략] 인컴/커버드콜", []string{
		"커버드콜", "프리미엄", "데일리고정", "COVERED CALL", "PREMIUM",
		"BUFFALO", "타겟리턴", "플러스",
	}},
	{"[전략] 배당/가치/성장", []string{
		"배당", "고배당", "배당성장", "배당주", "DIVIDEND", "DURABILITY",
		"가치", "VALUE", "저PBR", "퀄리티", "QUALITY", "ESG", "사회책임",
		"모멘텀", "MOMENTUM",
	}},
	{"[산업] IT/반도체/AI", []string{
		"반도체", "AI", "테크", "소부장", "IT", "TECH", "DIGITAL", "소프트웨어", "HBM",
	}},
	{"[산업] 금융/은행/보험", []string{"금융", "은행", "보험", "증권", "지주", "FINANCE", "K-금융"}},
	{"[산업] 에너지/소재/산업재", []string{
		"에너지", "화학", "철강", "정유", "원유", "조선", "원자력", "신재생",
		"친환경", "소비재", "화장품", "건설",
	}},
	{"[테마] 2차전지/전기차", []string{"2차전지", "배터리", "BATTERY", "리튬", "전기차", "EV", "에너지솔루션"}},
	{"[테마] 바이오/헬스케어", []string{"바이오", "헬스케어", "BIO", "HEALTHCARE", "의료", "제약"}},
	{"[테마] 중소형주", []string{"중소형", "SMALL CAP", "미드캡"}},
	{"[지수] 해외/글로벌", []string{
		"S&P", "NASDAQ", "나스닥", "다우", "미국", "글로벌", "GLOBAL", "MSCI",
		"유로", "베트남", "인도", "JAPAN", "일본", "차이나", "중국", "액티브",
	}},
	{"[지수] 국내 시장", []string{
		"200", "KOSPI", "코스피", "KOSDAQ", "코스닥", "150", "KRX300",
		"삼성그룹", "현대차그룹",
	}},
}

const sectorUnclassified = "[기타] 분류미상"

// Classify assigns the sector/strategy bucket from the concatenated display
// name and index/category text.
func Classify(name, indexName string) string {
	text := strings.ToUpper(name + " " + indexName)
	for _, bucket := range sectorBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(text, kw) {
				return bucket.label
			}
		}
	}
	return sectorUnclassified
}
