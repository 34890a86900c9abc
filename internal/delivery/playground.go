package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const playgroundPageContent = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Catalog API Playground</title>
    <style>
        body { height: 100%; margin: 0; width: 100%; overflow: hidden; }
        #graphiql { height: 100vh; }
    </style>
    <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css" />
</head>
<body>
    <div id="graphiql">Loading...</div>
    <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
    <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
    <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
    <script>
        const fetcher = GraphiQL.createFetcher({ url: '/graphql' });
        ReactDOM.createRoot(document.getElementById('graphiql')).render(
            React.createElement(GraphiQL, {
                fetcher,
                defaultQuery: '{\n  products(pagination: { limit: 5 }) {\n    total\n    items { id name price category { name slug } }\n  }\n}\n',
            }),
        );
    </script>
</body>
</html>
`

func ServePlayground(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(playgroundPageContent))
}
