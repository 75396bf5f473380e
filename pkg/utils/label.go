package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义；moviekit 只提供标准化的合并规则。
//
// 典型用法：召回源用它标注 recall_source，融合层用它标注分数来源，
// 冷启动用它标注 cold_start=true，便于下游 explain。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / postprocess ...
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
//
// 同一物品被多个召回源命中时（例如同时来自 cf 与 content），
// merge 之后的 recall_source 形如 "cf|content"，explain 时一眼可见。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
