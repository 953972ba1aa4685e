// Package engine содержит конечный автомат workflow.
//
// Последовательность узлов фиксирована:
//
//	EXTRACTING → CLASSIFYING → DECIDING_REVIEW → {AWAITING_HUMAN_INPUT | GENERATING} → DONE
//
// Дисциплина выполнения:
//   - Узел — барьер: следующий узел не начинается, пока каждый документ
//     не получил попытку на текущем (конкурентность — внутри узла).
//   - Сразу после барьера engine записывает checkpoint; это контракт
//     возобновляемости — после рестарта выполнение продолжается ровно
//     со следующего узла.
//   - Перед приостановкой на ручную проверку записывается checkpoint
//     с актуальным списком pending_review, поэтому прерванная сессия
//     проверки возобновляется с тем же оставшимся подмножеством.
//   - Ошибка узла переводит run в FAILED, не трогая последний успешный
//     checkpoint — он сохраняется для диагностики.
package engine
