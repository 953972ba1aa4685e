// Package coordinator связывает внешние вызовы (CLI) с engine.
//
// Coordinator отвечает за жизненный цикл run:
//   - сборку batch из каталога с PDF-файлами;
//   - возобновление run из последнего checkpoint'а по thread_id;
//   - приём решений ручной проверки по именам файлов;
//   - чтение статуса и сброс состояния thread'а.
//
// Engine ничего не знает про каталоги и имена файлов — эта граница
// проходит здесь.
package coordinator
