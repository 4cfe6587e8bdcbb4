package http

// WriteError expone la traducción de errores a los tests del paquete http_test.
var WriteError = writeError
