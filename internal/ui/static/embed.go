// Пакет static — встроенные статические ресурсы портала.
// Файлы встраиваются в бинарник через //go:embed и раздаются через HTTP.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

// content — встроенная файловая система со статическими ресурсами.
//
//go:embed css/*.css js/*.js
var content embed.FS

// Handler возвращает обработчик запросов к /static/*.
// Файлы доступны по путям вида /static/css/app.css, /static/js/app.js.
func Handler() http.Handler {
	return http.FileServer(http.FS(content))
}

// FS возвращает fs.FS для прямого доступа к встроенным файлам.
func FS() fs.FS {
	return content
}
