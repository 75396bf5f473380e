// Package content 实现内容相似侧：从影片元信息提取特征、离线构建相似图、
// 在线产出"相似影片"与基于正反馈种子的用户推荐。
package content

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/moviekit/moviekit/core"
)

// 各特征通道在总相似度中的权重。题材是主导信号，
// 标题文本次之，年代/热度/口碑只做微调。
const (
	WeightGenre      = 0.60
	WeightTitle      = 0.20
	WeightYear       = 0.07
	WeightPopularity = 0.07
	WeightRating     = 0.06
)

// Corpus 是一批物品的特征视图：TF-IDF 稀疏向量 + 归一化数值特征。
// 构建一次后可对任意物品对求相似度。
type Corpus struct {
	items []*core.ItemMeta
	index map[string]int

	genreVecs []map[string]float64 // L2 归一化的题材 TF-IDF
	titleVecs []map[string]float64 // L2 归一化的标题词 TF-IDF

	years   []float64 // min-max 归一化
	pops    []float64 // log1p(评分人数) 后 min-max 归一化
	ratings []float64 // 均分 min-max 归一化
}

// NewCorpus 从物品元信息构建特征语料。输入顺序不影响结果。
func NewCorpus(items []*core.ItemMeta) *Corpus {
	// 按 ID 排序保证可复现
	sorted := make([]*core.ItemMeta, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Corpus{
		items: sorted,
		index: make(map[string]int, len(sorted)),
	}
	for i, it := range sorted {
		c.index[it.ID] = i
	}

	genreDocs := make([][]string, len(sorted))
	titleDocs := make([][]string, len(sorted))
	rawYears := make([]float64, len(sorted))
	rawPops := make([]float64, len(sorted))
	rawRatings := make([]float64, len(sorted))
	for i, it := range sorted {
		genreDocs[i] = normalizeTokens(it.Genres)
		titleDocs[i] = tokenizeTitle(it.Title)
		rawYears[i] = float64(it.ReleaseYear)
		rawPops[i] = math.Log1p(float64(it.RatingCount))
		rawRatings[i] = it.AvgRating
	}

	c.genreVecs = tfidf(genreDocs)
	c.titleVecs = tfidf(titleDocs)
	c.years = minMaxScale(rawYears)
	c.pops = minMaxScale(rawPops)
	c.ratings = minMaxScale(rawRatings)
	return c
}

// Len 返回语料中的物品数。
func (c *Corpus) Len() int { return len(c.items) }

// IDAt 返回下标对应的物品 ID。
func (c *Corpus) IDAt(i int) string { return c.items[i].ID }

// IndexOf 返回物品在语料中的下标。
func (c *Corpus) IndexOf(itemID string) (int, bool) {
	i, ok := c.index[itemID]
	return i, ok
}

// MetaAt 返回下标对应的物品元信息。
func (c *Corpus) MetaAt(i int) *core.ItemMeta { return c.items[i] }

func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// 标题分词用的停用词（只挡最常见的虚词，不追求完整表）
var titleStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "in": {}, "on": {}, "to": {},
}

func tokenizeTitle(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := titleStopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// tfidf 计算每个文档的 L2 归一化 TF-IDF 向量。
// 词频按出现次数统计，idf = ln(N / (1 + df)) + 1。
func tfidf(docs [][]string) []map[string]float64 {
	n := len(docs)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	vecs := make([]map[string]float64, n)
	for i, doc := range docs {
		vec := make(map[string]float64, len(doc))
		for _, tok := range doc {
			vec[tok]++
		}
		var sumSq float64
		for tok, tf := range vec {
			w := tf * (math.Log(float64(n)/float64(1+df[tok])) + 1)
			vec[tok] = w
			sumSq += w * w
		}
		if sumSq > 0 {
			norm := math.Sqrt(sumSq)
			for tok := range vec {
				vec[tok] /= norm
			}
		}
		vecs[i] = vec
	}
	return vecs
}

// minMaxScale 把数值列缩放到 [0,1]；所有值相同时整列为 0（差值相似度恒为 1）。
func minMaxScale(vals []float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(vals))
	if max == min {
		return out
	}
	for i, v := range vals {
		out[i] = (v - min) / (max - min)
	}
	return out
}

func cosineSparse(a, b map[string]float64) float64 {
	// 向量已 L2 归一化，点积即余弦
	if len(a) > len(b) {
		a, b = b, a
	}
	var s float64
	for tok, wa := range a {
		if wb, ok := b[tok]; ok {
			s += wa * wb
		}
	}
	return s
}

// Similarity 计算两个物品的加权内容相似度，范围 [0,1)。
// 完全相同的元信息也会被 clip 在 1.0 之下，保证相似度不等价于同一物品。
func (c *Corpus) Similarity(i, j int) float64 {
	genreSim := cosineSparse(c.genreVecs[i], c.genreVecs[j])
	titleSim := cosineSparse(c.titleVecs[i], c.titleVecs[j])
	yearSim := 1 - math.Abs(c.years[i]-c.years[j])
	popSim := 1 - math.Abs(c.pops[i]-c.pops[j])
	ratingSim := 1 - math.Abs(c.ratings[i]-c.ratings[j])

	sim := WeightGenre*genreSim +
		WeightTitle*titleSim +
		WeightYear*yearSim +
		WeightPopularity*popSim +
		WeightRating*ratingSim

	if sim >= 1.0 {
		sim = 0.999999
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}
