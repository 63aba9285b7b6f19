package utils

//run redis
//docker run -p 6379:6379 -d redis

//serve procedure PDFs from ./public/documents, or set documents.base_url

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
