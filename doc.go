// Package moviekit 是一个影片混合推荐内核（Movie Recommender Kit）。
//
// 设计要点：
// - Pipeline-first: 在线推荐逻辑通过 Node 串联（Recall → Filter → Rank → PostProcess）
// - 双信号源: 协同过滤（CF, 离线 ALS 训练）与内容相似（CB, 离线相似图）各自召回，
//   经分数归一化后按权重融合为单一排序
// - 冷启动: 按用户交互总量决定冷启动候选与融合结果的混合比例
// - Labels-first: labels 全链路透传，支持 explain / 观测 / 策略驱动
package moviekit

import "github.com/moviekit/moviekit/pipeline"

// 轻量 facade：便于用户直接 import "moviekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
