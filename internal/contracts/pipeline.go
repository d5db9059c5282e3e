package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 이벤트, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   discovery → context → gather → aggregation → analysis → validation → postprocess → publish

// Stage represents a pipeline stage
type Stage string

const (
	// StageDiscovery: 후보 종목 선정
	// 위치: internal/s1_discovery/
	StageDiscovery Stage = "discovery"

	// StageContext: 최근 분석 이력 조회 (history store)
	StageContext Stage = "context"

	// StageGather: 종목별 외부 데이터 수집
	// 위치: internal/s2_aggregate/ (Gather)
	StageGather Stage = "gather"

	// StageAggregation: 수집 데이터 병합 및 품질 점수
	// 위치: internal/s2_aggregate/ (Merge)
	StageAggregation Stage = "aggregation"

	// StageAnalysis: 생성 모델 호출
	// 위치: internal/s3_analysis/
	StageAnalysis Stage = "analysis"

	// StageValidation: 모델 출력 검증 (유일한 신뢰 경계)
	// 위치: internal/s4_validation/
	StageValidation Stage = "validation"

	// StagePostprocess: 시세/품질 첨부, 중복 제거, 정렬
	StagePostprocess Stage = "postprocess"

	// StagePublish: 외부 publish sink 전달
	StagePublish Stage = "publish"
)

// AllStages returns every stage in execution order
func AllStages() []Stage {
	return []Stage{
		StageDiscovery,
		StageContext,
		StageGather,
		StageAggregation,
		StageAnalysis,
		StageValidation,
		StagePostprocess,
		StagePublish,
	}
}

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// IsFanOut reports whether the stage runs per symbol
func (s Stage) IsFanOut() bool {
	switch s {
	case StageGather, StageAggregation, StageAnalysis, StageValidation:
		return true
	}
	return false
}

// StageStatus is the outcome of a stage
type StageStatus string

const (
	StatusCompleted StageStatus = "completed"
	StatusPartial   StageStatus = "partial"
	StatusFailed    StageStatus = "failed"
	StatusSkipped   StageStatus = "skipped"
)

// Succeeded reports whether the stage produced usable output
func (s StageStatus) Succeeded() bool {
	return s == StatusCompleted || s == StatusPartial
}
