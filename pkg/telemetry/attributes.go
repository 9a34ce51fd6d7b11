package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Запуск
	AttrRunID = "run.id"

	// Граф
	AttrGraphVertices = "graph.vertices"
	AttrGraphEdges    = "graph.edges"
	AttrGraphSeed     = "graph.seed"
	AttrForcedOut     = "graph.forced_outgoing"
	AttrForcedIn      = "graph.forced_incoming"

	// Поиск
	AttrSearchSource      = "search.source"
	AttrSearchRounds      = "search.rounds"
	AttrSearchUnreachable = "search.unreachable"
	AttrEngineWorkers     = "engine.workers"
)

// GraphAttributes возвращает атрибуты генерации графа
func GraphAttributes(vertices, edges int, seed int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphVertices, vertices),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int64(AttrGraphSeed, seed),
	}
}

// ForcedEdgeAttributes возвращает количество добавленных рёбер
func ForcedEdgeAttributes(outgoing, incoming int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrForcedOut, outgoing),
		attribute.Int(AttrForcedIn, incoming),
	}
}

// SearchAttributes возвращает атрибуты поиска кратчайших путей
func SearchAttributes(source, rounds, unreachable, workers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrSearchSource, source),
		attribute.Int(AttrSearchRounds, rounds),
		attribute.Int(AttrSearchUnreachable, unreachable),
		attribute.Int(AttrEngineWorkers, workers),
	}
}
